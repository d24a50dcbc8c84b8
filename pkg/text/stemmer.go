package text

import "strings"

// derivational 按长度降序排列，单次匹配最长后缀。
// 不包含 "er"：server / container / weather 等词根会被误合并。
var derivational = []string{
	"ization", "ational", "ising", "izing", "ional",
	"ment", "ness", "less",
	"able", "ible", "tion", "sion", "ling", "ally",
	"ful", "ous", "ive", "ing", "ed", "ly",
}

// Stem 是轻量的两段式后缀词干化。
//
// 第一段去复数：ies → y；ches/shes/xes/zes/sses → 去 es；其余 s → 去 s（ss/us/is 结尾保留）。
// 第二段去掉一个派生后缀（最长优先），且保留至少 3 个字符的词根。
//
// 例如 "rates" → "rate"，"earnings" → "earn"，"taxes" → "tax"。
func Stem(word string) string {
	if len(word) < 4 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		word = word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "zes"):
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ss"),
		strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"):
	case strings.HasSuffix(word, "s"):
		word = word[:len(word)-1]
	}

	for _, suf := range derivational {
		if len(word) > len(suf)+2 && strings.HasSuffix(word, suf) {
			return word[:len(word)-len(suf)]
		}
	}
	return word
}
