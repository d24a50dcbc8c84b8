package rerank

import (
	"context"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，在排序后截取前 N 篇文章。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.SimilarityNode{...},  // 排序
//	        &rerank.Diversity{...},     // 多样性重排
//	        &rerank.TopNNode{N: 20},    // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的文章数量
	// 如果 N <= 0，则返回所有文章（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
