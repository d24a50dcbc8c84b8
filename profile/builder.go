// Package profile 把用户交互历史转为兴趣文档。
//
// 兴趣文档是带权重的 token 序列：like 的文章文本重复 LikeWeight 次，
// view 重复 ViewWeight 次；dislike 单独收集为负向文档，由排序阶段事后扣分。
// 画像每次请求重建，不缓存、不持久化。
package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pkg/text"
)

const (
	DefaultLikeWeight    = 3
	DefaultViewWeight    = 1
	DefaultHistoryWindow = 200
)

// Builder 是画像构建器，无状态、并发安全。
type Builder struct {
	// LikeWeight like 文本重复次数，必须大于 ViewWeight
	LikeWeight int
	// ViewWeight view 文本重复次数，至少为 1
	ViewWeight int
	// HistoryWindow 最多使用最近多少条交互，<= 0 表示不限制
	HistoryWindow int
	// StrongestSignalOnly 为 true 时同一文章只保留权重最大的一次交互
	StrongestSignalOnly bool

	Normalizer text.Normalizer
}

// NewBuilder 返回默认权重的构建器。
func NewBuilder() *Builder {
	return &Builder{
		LikeWeight:    DefaultLikeWeight,
		ViewWeight:    DefaultViewWeight,
		HistoryWindow: DefaultHistoryWindow,
	}
}

// Validate 校验权重：like > view >= 1。
func (b *Builder) Validate() error {
	if b.ViewWeight < 1 {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("profile: view_weight must be >= 1, got %d", b.ViewWeight))
	}
	if b.LikeWeight <= b.ViewWeight {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("profile: like_weight (%d) must be greater than view_weight (%d)", b.LikeWeight, b.ViewWeight))
	}
	return nil
}

type contribution struct {
	articleID string
	kind      core.Kind
	doc       string
	ts        time.Time
}

// Build 构建兴趣画像。
//
// events 顺序无关：内部先按时间倒序截取窗口，再按 (文章ID, 类型, 文本, 时间)
// 规范排序后拼接，同一事件集合的任意排列得到逐字节相同的文档。
// 未知类型或归一化后为空的事件被跳过并计入 Skipped。
func (b *Builder) Build(userID string, events []core.InteractionEvent) *core.InterestProfile {
	p := &core.InterestProfile{
		UserID:      userID,
		DislikedIDs: make(map[string]bool),
		ViewedIDs:   make(map[string]bool),
	}
	if len(events) == 0 {
		return p
	}

	window := b.window(events)

	contribs := make([]contribution, 0, len(window))
	for _, ev := range window {
		if !ev.Kind.Valid() {
			p.Skipped++
			continue
		}
		doc := b.Normalizer.Document(ev.ArticleText)
		if doc == "" {
			p.Skipped++
			continue
		}
		contribs = append(contribs, contribution{
			articleID: ev.ArticleID,
			kind:      ev.Kind,
			doc:       doc,
			ts:        ev.Timestamp,
		})
	}

	if b.StrongestSignalOnly {
		contribs = strongest(contribs)
	}

	sort.Slice(contribs, func(i, j int) bool {
		a, c := contribs[i], contribs[j]
		if a.articleID != c.articleID {
			return a.articleID < c.articleID
		}
		if a.kind != c.kind {
			return a.kind < c.kind
		}
		if a.doc != c.doc {
			return a.doc < c.doc
		}
		return a.ts.Before(c.ts)
	})

	var pos, neg []string
	for _, c := range contribs {
		switch c.kind {
		case core.KindLike:
			p.Likes++
			pos = repeat(pos, c.doc, b.LikeWeight)
		case core.KindView:
			p.Views++
			p.ViewedIDs[c.articleID] = true
			pos = repeat(pos, c.doc, b.ViewWeight)
		case core.KindDislike:
			p.Dislikes++
			p.DislikedIDs[c.articleID] = true
			neg = append(neg, c.doc)
		}
	}
	p.Document = strings.Join(pos, " ")
	p.Disliked = strings.Join(neg, " ")
	return p
}

// window 按时间倒序（同时间按文章 ID）取最近 HistoryWindow 条，不修改入参。
func (b *Builder) window(events []core.InteractionEvent) []core.InteractionEvent {
	sorted := make([]core.InteractionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, c := sorted[i], sorted[j]
		if !a.Timestamp.Equal(c.Timestamp) {
			return a.Timestamp.After(c.Timestamp)
		}
		if a.ArticleID != c.ArticleID {
			return a.ArticleID < c.ArticleID
		}
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		return a.ArticleText < c.ArticleText
	})
	if b.HistoryWindow > 0 && len(sorted) > b.HistoryWindow {
		sorted = sorted[:b.HistoryWindow]
	}
	return sorted
}

func repeat(dst []string, doc string, n int) []string {
	for i := 0; i < n; i++ {
		dst = append(dst, doc)
	}
	return dst
}

// 信号强度：like > dislike > view
func strength(k core.Kind) int {
	switch k {
	case core.KindLike:
		return 3
	case core.KindDislike:
		return 2
	case core.KindView:
		return 1
	}
	return 0
}

// strongest 同一文章只保留最强信号；同强度保留最新的一条。
func strongest(contribs []contribution) []contribution {
	best := make(map[string]contribution, len(contribs))
	for _, c := range contribs {
		old, ok := best[c.articleID]
		if !ok {
			best[c.articleID] = c
			continue
		}
		sc, so := strength(c.kind), strength(old.kind)
		if sc > so || (sc == so && (c.ts.After(old.ts) || (c.ts.Equal(old.ts) && c.doc < old.doc))) {
			best[c.articleID] = c
		}
	}
	out := make([]contribution, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	return out
}
