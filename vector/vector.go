package vector

import (
	"math"
	"sort"
)

// Term 是稀疏向量中的一个 (词, 权重) 对。
type Term struct {
	Word   string
	Weight float64
}

// Vector 是稀疏向量，始终按 Word 升序排列，便于 merge-join。
// nil 即零向量。
type Vector []Term

// NewVector 由 词→权重 map 构建有序稀疏向量；非有限值与 0 权重被丢弃。
func NewVector(weights map[string]float64) Vector {
	if len(weights) == 0 {
		return nil
	}
	v := make(Vector, 0, len(weights))
	for word, w := range weights {
		if w == 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		v = append(v, Term{Word: word, Weight: w})
	}
	if len(v) == 0 {
		return nil
	}
	sort.Slice(v, func(i, j int) bool {
		return v[i].Word < v[j].Word
	})
	return v
}

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, t := range v {
		sum += t.Weight * t.Weight
	}
	return math.Sqrt(sum)
}

// Normalized 返回 L2 归一化后的副本；零向量返回 nil。
func (v Vector) Normalized() Vector {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	out := make(Vector, len(v))
	for i, t := range v {
		out[i] = Term{Word: t.Word, Weight: t.Weight / n}
	}
	return out
}

// Dot 计算两个有序稀疏向量的点积，O(n+m)。
func Dot(a, b Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Word == b[j].Word:
			dot += a[i].Weight * b[j].Weight
			i++
			j++
		case a[i].Word < b[j].Word:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine 计算余弦相似度 dot(a,b) / (‖a‖·‖b‖)。
// 任一范数为 0 时返回 0；结果总是有限值。
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	denom := a.Norm() * b.Norm()
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0
	}
	sim := Dot(a, b) / denom
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}
