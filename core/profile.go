package core

import "strings"

// InterestProfile 是由交互历史即时构建的兴趣文档，每次请求重建，不做缓存。
//
// Document 是正向兴趣文档（like / view 按权重重复拼接的 token 序列，空格分隔）；
// Disliked 是 dislike 文章的 token 序列，只用于事后扣分，不参与 IDF 统计。
type InterestProfile struct {
	UserID   string
	Document string
	Disliked string

	Likes    int
	Views    int
	Dislikes int
	Skipped  int

	// DislikedIDs / ViewedIDs 用于候选过滤
	DislikedIDs map[string]bool
	ViewedIDs   map[string]bool
}

// Empty 表示没有可用的正向兴趣（无个性化信号）。
func (p *InterestProfile) Empty() bool {
	return p == nil || p.Document == ""
}

// Tokens 返回正向兴趣文档的 token 序列。
func (p *InterestProfile) Tokens() []string {
	if p == nil {
		return nil
	}
	return strings.Fields(p.Document)
}

// DislikedTokens 返回负向文档的 token 序列。
func (p *InterestProfile) DislikedTokens() []string {
	if p == nil {
		return nil
	}
	return strings.Fields(p.Disliked)
}
