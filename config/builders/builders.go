// Package builders 在 init 中向 config 注册内置 Node 的构建逻辑。
package builders

import (
	"fmt"

	"github.com/rushteam/foryou/config"
	"github.com/rushteam/foryou/filter"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/conv"
	"github.com/rushteam/foryou/rank"
	"github.com/rushteam/foryou/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistFilterNode)
	config.Register("rank.similarity", BuildSimilarityNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildFilterNode 构建组合过滤 Node：
//
//	type: filter
//	config:
//	  filters:
//	    - type: disliked
//	    - type: consumed
//	    - type: blacklist
//	      item_ids: [a1]
//	      categories: [sports]
//	    - type: expr
//	      expr: 'item.source == "tabloid"'
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := buildFilter(filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFilter(m map[string]interface{}) (filter.Filter, error) {
	switch filterType := conv.ConfigGet(m, "type", ""); filterType {
	case "disliked":
		return filter.NewDislikedFilter(nil, conv.ConfigGet(m, "key_prefix", "")), nil
	case "consumed":
		return &filter.ConsumedFilter{}, nil
	case "blacklist":
		return blacklist(m), nil
	case "expr":
		expr := conv.ConfigGet(m, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("expr filter: expr not found")
		}
		return filter.NewExprFilter(expr)
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}

func blacklist(m map[string]interface{}) *filter.BlacklistFilter {
	return &filter.BlacklistFilter{
		ItemIDs:    conv.SliceAnyToString(m["item_ids"]),
		Categories: conv.SliceAnyToString(m["categories"]),
		Sources:    conv.SliceAnyToString(m["sources"]),
	}
}

func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildBlacklistFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &filter.FilterNode{Filters: []filter.Filter{blacklist(cfg)}}, nil
}

func BuildSimilarityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	r := rank.NewRanker()
	r.RecencyDecayRate = conv.ConfigGetFloat64(cfg, "recency_decay_rate", r.RecencyDecayRate)
	r.RecencyWeight = conv.ConfigGetFloat64(cfg, "recency_weight", r.RecencyWeight)
	r.DislikeWeight = conv.ConfigGetFloat64(cfg, "dislike_weight", r.DislikeWeight)
	r.MinSimilarity = conv.ConfigGetFloat64(cfg, "min_similarity", r.MinSimilarity)
	r.MinResults = int(conv.ConfigGetInt64(cfg, "min_results", int64(r.MinResults)))
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &rank.SimilarityNode{Ranker: r}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:       conv.ConfigGet(cfg, "label_key", "category"),
		MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 1)),
		Drop:           conv.ConfigGet(cfg, "drop", false),
	}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
