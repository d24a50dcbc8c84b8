package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/utils"
)

// DefaultCandidateLimit 单次召回的候选上限
const DefaultCandidateLimit = 50

// ArticleRecall 从 core.ArticleSource 按 rctx.Categories 拉取候选文章。
// 既可作为 Fanout 的 Source，也可直接作为 Recall Node 使用。
type ArticleRecall struct {
	// Label 写入 recall_source 标签，默认 "articles"
	Label  string
	Source core.ArticleSource
	// Limit 候选上限，<= 0 时使用 DefaultCandidateLimit
	Limit int
}

func (r *ArticleRecall) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return "articles"
}

func (r *ArticleRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Recall 拉取候选并转为 Item；同一 ID 只保留第一次出现的文章，空 ID 被丢弃。
func (r *ArticleRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Source == nil {
		return nil, nil
	}
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	var categories []string
	if rctx != nil {
		categories = rctx.Categories
	}

	articles, err := r.Source.Candidates(ctx, categories, limit)
	if err != nil {
		return nil, fmt.Errorf("recall %s: %w", r.Name(), err)
	}

	seen := make(map[string]bool, len(articles))
	items := make([]*core.Item, 0, len(articles))
	for _, a := range articles {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		it := core.NewItem(a)
		it.PutLabel("recall_source", utils.NewLabel(r.Name(), "recall"))
		if a.Category != "" {
			it.PutLabel("category", utils.NewLabel(a.Category, "recall"))
		}
		items = append(items, it)
	}
	return items, nil
}

// Process 忽略上游 items，返回召回结果。
func (r *ArticleRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}
