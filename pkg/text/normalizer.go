// Package text 把文章的 title + description 归一化为规范 token 序列，
// 画像构建与候选向量化共用同一套规则。
package text

import (
	"strings"
	"unicode"
)

// Normalizer 是文本归一化器，无状态、并发安全。
type Normalizer struct {
	// KeepStopWords 为 true 时保留英文停用词与新闻模板词
	KeepStopWords bool

	// DisableStemming 为 true 时不做词干化
	DisableStemming bool
}

// Default 是默认归一化器：去停用词 + 词干化。
var Default = Normalizer{}

// Normalize 使用默认归一化器。
func Normalize(raw string) []string {
	return Default.Normalize(raw)
}

// Normalize 将原始文本转为 token 序列：
// 小写化、按非字母数字切分（去标点）、去停用词、词干化、去掉单字符 token。
// 空文本返回 nil，不报错。
func (n Normalizer) Normalize(raw string) []string {
	if raw == "" {
		return nil
	}

	lower := strings.ToLower(raw)
	// 撇号直接删除，"fed's" 作为一个词处理，而不是切成 "fed" + "s"
	lower = strings.NewReplacer("'", "", "’", "").Replace(lower)

	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, f := range fields {
		if !n.KeepStopWords && (stopWords[f] || newsWords[f]) {
			continue
		}
		if !n.DisableStemming {
			f = Stem(f)
		}
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Document 返回空格拼接的规范文档，同样输入总是得到逐字节相同的输出。
func (n Normalizer) Document(raw string) string {
	return strings.Join(n.Normalize(raw), " ")
}

// TermFrequency 统计原始词频（未归一化）。
func TermFrequency(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}
