package filter

import (
	"context"

	"github.com/rushteam/foryou/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：FilterNode 每次请求先调用 Prepare 得到本次请求使用的 Filter，
// 用于把按用户加载的数据（已消费集合、存储中的黑名单）在请求内只读取一次。
// 返回非 nil Filter 且 error 非 nil 表示部分数据读取失败、Filter 降级可用。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// idSet 是按 ID 集合过滤的请求级 Filter。
type idSet struct {
	name string
	ids  map[string]bool
}

func (f *idSet) Name() string { return f.name }

func (f *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item != nil && f.ids[item.ID], nil
}
