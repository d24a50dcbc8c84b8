package text

// stopWords 是英文停用词（按词干化之前的原词匹配）。
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "as": true,
	"be": true, "was": true, "are": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "shall": true, "must": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "me": true, "my": true,
	"we": true, "our": true, "you": true, "your": true, "he": true, "she": true,
	"his": true, "her": true, "they": true, "them": true, "their": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"how": true, "why": true, "not": true, "no": true, "so": true, "if": true,
	"then": true, "than": true, "too": true, "very": true, "just": true,
	"about": true, "also": true, "into": true, "each": true, "all": true,
	"any": true, "some": true, "more": true, "most": true, "other": true,
	"up": true, "out": true, "its": true, "only": true, "own": true, "same": true,
	"there": true, "here": true, "am": true, "were": true, "while": true,
	"during": true, "before": true, "after": true, "above": true, "below": true,
	"between": true, "through": true, "again": true, "further": true, "once": true,
	"both": true, "such": true, "don": true, "didn": true, "doesn": true,
	"won": true, "isn": true, "aren": true, "wasn": true, "weren": true,
	"over": true, "under": true, "across": true, "against": true, "via": true,
	"s": true, "t": true, "re": true, "ve": true, "ll": true, "us": true,
}

// newsWords 是新闻标题/摘要中的模板词，几乎不携带主题信息。
var newsWords = map[string]bool{
	"news": true, "report": true, "reports": true, "reported": true,
	"update": true, "updates": true, "breaking": true, "latest": true,
	"says": true, "said": true, "say": true, "new": true, "today": true,
	"read": true, "more": true, "chars": true, "live": true, "week": true,
	"year": true, "day": true, "video": true, "watch": true, "photos": true,
}
