package filter

import (
	"context"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
//
// 过滤器出错时视为不过滤（fail-open），错误交给 OnError 观测。
type FilterNode struct {
	Filters []Filter

	// OnError 可选，过滤器出错时回调
	OnError func(name string, err error)
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		if f == nil {
			continue
		}
		if p, ok := f.(Preparer); ok {
			prepared, err := p.Prepare(ctx, rctx)
			if err != nil {
				n.reportError(f.Name(), err)
			}
			if prepared == nil {
				continue
			}
			f = prepared
		}
		filters = append(filters, f)
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.reportError(f.Name(), err)
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			item.PutLabel("filtered", utils.NewLabel("true", filterReason))
			continue
		}
		out = append(out, item)
	}

	return out, nil
}

func (n *FilterNode) reportError(name string, err error) {
	if n.OnError != nil {
		n.OnError(name, err)
	}
}
