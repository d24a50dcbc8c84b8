package filter

import (
	"context"

	"github.com/rushteam/foryou/core"
)

// DislikedFilter 过滤用户 dislike 过的文章。
// 来源：本次请求画像中的 DislikedIDs，以及可选的 Store 中持久化的拉黑列表。
type DislikedFilter struct {
	// Store 可选，读取用户拉黑的文章列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户拉黑存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户拉黑的文章 ID 列表
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewDislikedFilter 创建 dislike 过滤器，storeAdapter 可为 nil。
func NewDislikedFilter(storeAdapter *StoreAdapter, keyPrefix string) *DislikedFilter {
	f := &DislikedFilter{KeyPrefix: keyPrefix}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *DislikedFilter) Name() string {
	return "filter.disliked"
}

// Prepare 合并画像与存储中的拉黑 ID；存储读取失败时返回只含画像 ID 的 Filter 和错误。
func (f *DislikedFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	ids := make(map[string]bool)
	if rctx == nil {
		return &idSet{name: f.Name(), ids: ids}, nil
	}
	if rctx.Profile != nil {
		for id := range rctx.Profile.DislikedIDs {
			ids[id] = true
		}
	}
	if f.Store != nil && rctx.UserID != "" {
		keyPrefix := f.KeyPrefix
		if keyPrefix == "" {
			keyPrefix = "user:block"
		}
		blocked, err := f.Store.GetUserBlocks(ctx, rctx.UserID, keyPrefix)
		if err != nil && !core.IsStoreNotFound(err) {
			return &idSet{name: f.Name(), ids: ids}, err
		}
		for _, id := range blocked {
			ids[id] = true
		}
	}
	return &idSet{name: f.Name(), ids: ids}, nil
}

func (f *DislikedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	prepared, err := f.Prepare(ctx, rctx)
	if prepared == nil {
		return false, err
	}
	filtered, ferr := prepared.ShouldFilter(ctx, rctx, item)
	if filtered || ferr != nil {
		return filtered, ferr
	}
	return false, err
}
