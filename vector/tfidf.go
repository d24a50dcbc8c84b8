package vector

import (
	"math"

	"github.com/rushteam/foryou/pkg/text"
)

// Space 是在一批文档上联合构建的 TF-IDF 词空间。
//
// 词表是批内所有文档的并集（画像中独有的兴趣词同样可表示）。
// 每次请求重新构建，不跨用户、不跨请求共享。
type Space struct {
	idf        map[string]float64
	docs       int
	degenerate bool
	vectors    []Vector
}

// Fit 在 docs 上构建词空间并返回每篇文档的向量（顺序与输入一致）。
//
//   - TF：原始词频
//   - IDF：平滑形式 ln((1+n)/(1+df)) + 1，出现在全部文档中的词权重仍为正
//   - 每个向量做 L2 归一化，相似度退化为点积
//
// 非空文档少于 2 篇或词表为空时，空间为退化空间：所有向量为零向量，不报错。
func Fit(docs [][]string) *Space {
	s := &Space{
		idf:  make(map[string]float64),
		docs: len(docs),
	}

	df := make(map[string]int)
	nonEmpty := 0
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		nonEmpty++
		seen := make(map[string]bool, len(doc))
		for _, t := range doc {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	s.vectors = make([]Vector, len(docs))
	if nonEmpty < 2 || len(df) == 0 {
		s.degenerate = true
		return s
	}

	n := float64(len(docs))
	for term, d := range df {
		s.idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}
	for i, doc := range docs {
		s.vectors[i] = s.Transform(doc)
	}
	return s
}

// Vectors 返回 Fit 时每篇文档的向量。
func (s *Space) Vectors() []Vector {
	return s.vectors
}

// Degenerate 表示该空间无法给出有效向量。
func (s *Space) Degenerate() bool {
	return s.degenerate
}

// Vocabulary 返回词表大小。
func (s *Space) Vocabulary() int {
	return len(s.idf)
}

// IDF 返回词的逆文档频率；词表外的词返回 0。
func (s *Space) IDF(term string) float64 {
	return s.idf[term]
}

// Transform 把一篇文档投影到已构建的空间；词表外的词被忽略。
// 投影的文档不影响 DF 统计（用于 dislike 文档等事后打分）。
func (s *Space) Transform(tokens []string) Vector {
	if s.degenerate || len(tokens) == 0 {
		return nil
	}
	tf := text.TermFrequency(tokens)
	weights := make(map[string]float64, len(tf))
	for term, freq := range tf {
		if idf, ok := s.idf[term]; ok {
			weights[term] = freq * idf
		}
	}
	return NewVector(weights).Normalized()
}
