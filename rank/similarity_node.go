package rank

import (
	"context"
	"time"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/text"
	"github.com/rushteam/foryou/vector"
)

// SimilarityNode 是内容相似度排序 Node。
//
// 每次 Process 在 {画像, 候选...} 上重新构建 TF-IDF 空间，
// 负向文档投影到同一空间（不参与 IDF 统计），再交给 Ranker 打分排序。
// 不截断，Top-K 由下游 rerank.TopNNode 负责。
type SimilarityNode struct {
	Ranker     *Ranker
	Normalizer text.Normalizer
}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	r := n.Ranker
	if r == nil {
		r = NewRanker()
	}

	var profile *core.InterestProfile
	now := time.Now()
	if rctx != nil {
		profile = rctx.Profile
		if !rctx.Now.IsZero() {
			now = rctx.Now
		}
	}

	docs := make([][]string, 0, len(items)+1)
	docs = append(docs, profile.Tokens())
	for _, it := range items {
		if it == nil {
			docs = append(docs, nil)
			continue
		}
		docs = append(docs, n.Normalizer.Normalize(it.Article.Text()))
	}

	space := vector.Fit(docs)
	vecs := space.Vectors()
	disliked := space.Transform(profile.DislikedTokens())

	return r.rankItems(now, vecs[0], disliked, items, vecs[1:]), nil
}
