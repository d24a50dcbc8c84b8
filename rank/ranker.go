// Package rank 对候选文章打分排序：
//
//	score = cosine(profile, candidate) + recency(published_at) - dislike_penalty
//
// 排序键依次为 score 降序、发布时间降序、文章 ID 升序，结果完全确定。
package rank

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pkg/utils"
	"github.com/rushteam/foryou/vector"
)

const (
	DefaultRecencyDecayRate = 0.99
	DefaultRecencyWeight    = 0.1
	DefaultDislikeWeight    = -0.5

	// MaxRecencyWeight 保证时间加成不会压过内容相似度
	MaxRecencyWeight = 0.5
)

// Candidate 是已向量化的候选文章。
type Candidate struct {
	Article core.Article
	Vector  vector.Vector
}

// Ranker 是相似度排序器，无状态、并发安全。
type Ranker struct {
	// RecencyDecayRate 每小时的衰减系数，取值 (0, 1]
	RecencyDecayRate float64
	// RecencyWeight 时间加成上限，取值 [0, MaxRecencyWeight]
	RecencyWeight float64
	// DislikeWeight 负向文档相似度的系数，<= 0；0 表示不扣分
	DislikeWeight float64
	// MinSimilarity 画像非空时的相似度下限，低于下限的候选被剔除
	MinSimilarity float64
	// MinResults 剔除后不足该数量时按发布时间补位
	MinResults int
}

// NewRanker 返回默认参数的排序器。
func NewRanker() *Ranker {
	return &Ranker{
		RecencyDecayRate: DefaultRecencyDecayRate,
		RecencyWeight:    DefaultRecencyWeight,
		DislikeWeight:    DefaultDislikeWeight,
	}
}

// Validate 校验参数范围。
func (r *Ranker) Validate() error {
	switch {
	case !isFinite(r.RecencyDecayRate) || r.RecencyDecayRate <= 0 || r.RecencyDecayRate > 1:
		return invalidConfig("recency_decay_rate must be in (0, 1], got %v", r.RecencyDecayRate)
	case !isFinite(r.RecencyWeight) || r.RecencyWeight < 0 || r.RecencyWeight > MaxRecencyWeight:
		return invalidConfig("recency_weight must be in [0, %v], got %v", MaxRecencyWeight, r.RecencyWeight)
	case !isFinite(r.DislikeWeight) || r.DislikeWeight > 0:
		return invalidConfig("dislike_weight must be <= 0, got %v", r.DislikeWeight)
	case !isFinite(r.MinSimilarity) || r.MinSimilarity < 0 || r.MinSimilarity > 1:
		return invalidConfig("min_similarity must be in [0, 1], got %v", r.MinSimilarity)
	case r.MinResults < 0:
		return invalidConfig("min_results must be >= 0, got %d", r.MinResults)
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: "+fmt.Sprintf(format, args...))
}

// Rank 对候选打分并排序，topK <= 0 表示不截断。
// profile 为零向量时所有相似度为 0，结果退化为按发布时间排序。
func (r *Ranker) Rank(now time.Time, profile, disliked vector.Vector, cands []Candidate, topK int) []core.RankedCandidate {
	items := make([]*core.Item, len(cands))
	vecs := make([]vector.Vector, len(cands))
	for i, c := range cands {
		items[i] = core.NewItem(c.Article)
		vecs[i] = c.Vector
	}
	ranked := r.rankItems(now, profile, disliked, items, vecs)
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	out := make([]core.RankedCandidate, len(ranked))
	for i, it := range ranked {
		out[i] = it.Ranked()
	}
	return out
}

// Recency 返回时间加成 RecencyWeight * decay^(age hours)，age 小于 0 按 0 计。
// 发布时间缺失时加成为 0。
func (r *Ranker) Recency(now, publishedAt time.Time) float64 {
	if publishedAt.IsZero() || r.RecencyWeight == 0 {
		return 0
	}
	age := now.Sub(publishedAt).Hours()
	if age < 0 {
		age = 0
	}
	return finite(r.RecencyWeight * math.Pow(r.RecencyDecayRate, age))
}

// rankItems 写入 Score / Features 并返回排序后的 items，vecs 与 items 一一对应。
func (r *Ranker) rankItems(now time.Time, profile, disliked vector.Vector, items []*core.Item, vecs []vector.Vector) []*core.Item {
	out := make([]*core.Item, 0, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		var v vector.Vector
		if i < len(vecs) {
			v = vecs[i]
		}
		sim := finite(vector.Cosine(profile, v))
		rec := r.Recency(now, it.Article.PublishedAt)
		var penalty float64
		if r.DislikeWeight != 0 && len(disliked) > 0 {
			penalty = finite(-r.DislikeWeight * vector.Cosine(disliked, v))
		}

		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		it.Features[core.FeatureSimilarity] = sim
		it.Features[core.FeatureRecency] = rec
		it.Features[core.FeatureDislikePenalty] = penalty
		it.Score = finite(sim + rec - penalty)
		it.PutLabel("rank_type", utils.NewLabel("similarity", "rank"))
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	if len(profile) == 0 || r.MinSimilarity <= 0 {
		return out
	}
	return r.applyFloor(out)
}

// applyFloor 剔除相似度低于下限的候选；不足 MinResults 时按发布时间补位并打上 fallback 标签。
func (r *Ranker) applyFloor(sorted []*core.Item) []*core.Item {
	kept := make([]*core.Item, 0, len(sorted))
	var dropped []*core.Item
	for _, it := range sorted {
		if it.Features[core.FeatureSimilarity] >= r.MinSimilarity {
			kept = append(kept, it)
		} else {
			dropped = append(dropped, it)
		}
	}
	if len(kept) >= r.MinResults || len(dropped) == 0 {
		return kept
	}

	sort.SliceStable(dropped, func(i, j int) bool {
		a, b := dropped[i].Article, dropped[j].Article
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
	for _, it := range dropped {
		if len(kept) >= r.MinResults {
			break
		}
		it.PutLabel(core.LabelFallback, utils.NewLabel("true", "rank"))
		kept = append(kept, it)
	}
	return kept
}

func less(a, b *core.Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Article.PublishedAt.Equal(b.Article.PublishedAt) {
		return a.Article.PublishedAt.After(b.Article.PublishedAt)
	}
	return a.ID < b.ID
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finite 把 NaN / Inf 归零
func finite(x float64) float64 {
	if isFinite(x) {
		return x
	}
	return 0
}
