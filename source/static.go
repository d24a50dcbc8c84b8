package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/foryou/core"
)

// Static 是内存中的文章源，用于测试、演示和离线评估。
type Static struct {
	mu       sync.RWMutex
	articles []core.Article
}

func NewStatic(articles ...core.Article) *Static {
	s := &Static{}
	s.Add(articles...)
	return s
}

// Add 追加文章，相同 ID 覆盖旧文章。
func (s *Static) Add(articles ...core.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		replaced := false
		for i := range s.articles {
			if s.articles[i].ID == a.ID {
				s.articles[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			s.articles = append(s.articles, a)
		}
	}
}

// Candidates 返回属于 categories 的文章（categories 为空时返回全部），
// 按发布时间倒序、ID 升序，截断到 limit。
func (s *Static) Candidates(_ context.Context, categories []string, limit int) ([]core.Article, error) {
	want := make(map[string]bool, len(categories))
	for _, c := range normalizeCategories(categories) {
		want[c] = true
	}

	s.mu.RLock()
	out := make([]core.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if len(want) > 0 && !want[strings.ToLower(a.Category)] {
			continue
		}
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ core.ArticleSource = (*Static)(nil)
