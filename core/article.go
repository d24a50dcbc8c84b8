package core

import (
	"strings"
	"time"
)

// Article 是候选文章，由 ArticleSource 提供；引擎只读，不做持久化。
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// Popularity 是来源侧的热度信号（可选）
	Popularity *float64 `json:"popularity,omitempty"`
}

// Text 返回用于文本归一化的 title + description。
func (a Article) Text() string {
	return ArticleText(a.Title, a.Description)
}

// ArticleText 以空格拼接标题与描述。
func ArticleText(title, description string) string {
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(description))
}

// RankedCandidate 是排序输出：文章 + 总分 + 分数分量。仅输出，不持久化。
type RankedCandidate struct {
	Article        Article `json:"article"`
	Score          float64 `json:"score"`
	Similarity     float64 `json:"similarity"`
	Recency        float64 `json:"recency"`
	DislikePenalty float64 `json:"dislike_penalty,omitempty"`

	// Fallback 表示该结果由补位逻辑加入（相似度低于下限）
	Fallback bool `json:"fallback,omitempty"`
}
