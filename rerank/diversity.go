package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/utils"
)

// Diversity 按类别做多样性重排：每个类别最多保留 MaxPerCategory 篇，
// 超出的文章不丢弃，而是按原顺序移到结果末尾。
// 类别来源优先级：
// - label[LabelKey].Value
// - Article.Category
type Diversity struct {
	LabelKey       string // 默认 "category"
	MaxPerCategory int    // 默认 1
	// Drop 为 true 时直接丢弃超出的文章
	Drop bool
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}
	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 1
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		cate := ""
		if lbl, ok := it.Labels[key]; ok {
			cate = lbl.Value
		}
		if cate == "" {
			cate = it.Article.Category
		}
		cate = strings.ToLower(cate)

		if cate == "" || counts[cate] < limit {
			counts[cate]++
			out = append(out, it)
			continue
		}
		if !n.Drop {
			it.PutLabel("diversity", utils.NewLabel("demoted", "rerank"))
			overflow = append(overflow, it)
		}
	}

	return append(out, overflow...), nil
}
