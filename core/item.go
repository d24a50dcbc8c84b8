package core

import "github.com/rushteam/foryou/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选文章、分数、分数分量、标签。
// Labels 用于解释与观测；Score 用于排序决策。
type Item struct {
	ID      string
	Article Article
	Score   float64

	// Features 保存排序分量，例如 similarity / recency / dislike_penalty
	Features map[string]float64
	Labels   map[string]utils.Label
}

// 排序分量在 Item.Features 中使用的 key
const (
	FeatureSimilarity     = "similarity"
	FeatureRecency        = "recency"
	FeatureDislikePenalty = "dislike_penalty"
)

func NewItem(a Article) *Item {
	return &Item{
		ID:       a.ID,
		Article:  a,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Ranked 将 Item 转为对外输出的 RankedCandidate。
func (it *Item) Ranked() RankedCandidate {
	rc := RankedCandidate{
		Article: it.Article,
		Score:   it.Score,
	}
	if it.Features != nil {
		rc.Similarity = it.Features[FeatureSimilarity]
		rc.Recency = it.Features[FeatureRecency]
		rc.DislikePenalty = it.Features[FeatureDislikePenalty]
	}
	if lbl, ok := it.Labels[LabelFallback]; ok && lbl.Value == "true" {
		rc.Fallback = true
	}
	return rc
}

// LabelFallback 标记因相似度不足而按时间补位的结果
const LabelFallback = "fallback"
