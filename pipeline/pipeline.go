package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/foryou/core"
)

// Pipeline 把 Feed 组装拆成可组合的 Node 链：召回 → 过滤 → 排序 → 重排。
type Pipeline struct {
	Nodes []Node

	// Observer 非空时在每个 Node 执行后回调，用于打点
	Observer Observer
}

// Observer 观测单个 Node 的执行结果。
type Observer interface {
	ObserveNode(node Node, in, out int, elapsed time.Duration, err error)
}

// ObserverFunc 是函数形式的 Observer。
type ObserverFunc func(node Node, in, out int, elapsed time.Duration, err error)

func (f ObserverFunc) ObserveNode(node Node, in, out int, elapsed time.Duration, err error) {
	f(node, in, out, elapsed, err)
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if node == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if p.Observer != nil {
			p.Observer.ObserveNode(node, len(cur), len(next), time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Append 返回追加了 nodes 的新 Pipeline，不修改原 Pipeline。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := &Pipeline{Observer: p.Observer}
	out.Nodes = make([]Node, 0, len(p.Nodes)+len(nodes))
	out.Nodes = append(out.Nodes, p.Nodes...)
	out.Nodes = append(out.Nodes, nodes...)
	return out
}
