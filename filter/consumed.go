package filter

import (
	"context"

	"github.com/rushteam/foryou/core"
)

// ConsumedFilter 过滤本次会话已消费的文章（偏好中给出的 + 会话开始后 view 过的）。
type ConsumedFilter struct{}

func (f *ConsumedFilter) Name() string {
	return "filter.consumed"
}

func (f *ConsumedFilter) Prepare(_ context.Context, rctx *core.RecommendContext) (Filter, error) {
	return &idSet{name: f.Name(), ids: rctx.ConsumedIDs()}, nil
}

func (f *ConsumedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return rctx.ConsumedIDs()[item.ID], nil
}
