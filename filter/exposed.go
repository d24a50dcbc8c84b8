package filter

import (
	"context"
	"time"

	"github.com/rushteam/foryou/core"
)

// ExposedFilter 是已曝光过滤器，过滤掉用户已经看过的文章。
// 支持两种数据源：
// 1. IDs 列表集合（近期数据）- 通过 GetExposedItems 获取
// 2. 布隆过滤器（较长周期数据，按天维度实现时间窗口）- 通过 CheckExposedInBloomFilter 检查
type ExposedFilter struct {
	// Store 用于从存储中读取用户曝光历史
	Store ExposedStore

	// KeyPrefix 是 Store 中的 key 前缀
	// 对于 IDs 列表：实际 key 为 {KeyPrefix}:{UserID}
	// 对于布隆过滤器：实际 key 为 {KeyPrefix}:bloom:{UserID}:{date}
	KeyPrefix string

	// TimeWindow 是曝光时间窗口（秒），用于 IDs 列表集合（近期数据）
	TimeWindow int64

	// BloomFilterDayWindow 是布隆过滤器的时间窗口（天数），为 0 时不使用布隆过滤器
	BloomFilterDayWindow int
}

// ExposedStore 是曝光历史存储接口。
type ExposedStore interface {
	// GetExposedItems 获取用户在 now 之前 timeWindow 秒内已曝光的文章 ID 列表
	GetExposedItems(ctx context.Context, userID string, keyPrefix string, now time.Time, timeWindow int64) ([]string, error)

	// CheckExposedInBloomFilter 检查文章是否在最近 dayWindow 天的布隆过滤器中
	// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在
	CheckExposedInBloomFilter(ctx context.Context, userID string, itemID string, keyPrefix string, now time.Time, dayWindow int) (bool, error)
}

// DefaultExposedKeyPrefix 曝光数据默认 key 前缀
const DefaultExposedKeyPrefix = "user:exposed"

// NewExposedFilter 创建一个已曝光过滤器。
// timeWindow 是 IDs 列表的时间窗口（秒）；bloomFilterDayWindow 为 0 则不使用布隆过滤器。
func NewExposedFilter(storeAdapter *StoreAdapter, keyPrefix string, timeWindow int64, bloomFilterDayWindow int) *ExposedFilter {
	f := &ExposedFilter{
		KeyPrefix:            keyPrefix,
		TimeWindow:           timeWindow,
		BloomFilterDayWindow: bloomFilterDayWindow,
	}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

type exposedFilter struct {
	*ExposedFilter
	recent map[string]bool
}

// Prepare 预先读取近期曝光 ID 列表；布隆过滤器按文章逐个检查。
func (f *ExposedFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	out := &exposedFilter{ExposedFilter: f, recent: make(map[string]bool)}
	if f.Store == nil || rctx == nil || rctx.UserID == "" || f.TimeWindow <= 0 {
		return out, nil
	}
	ids, err := f.Store.GetExposedItems(ctx, rctx.UserID, f.keyPrefix(), now(rctx), f.TimeWindow)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return out, nil
		}
		// 列表读取失败时仍使用布隆过滤器
		return out, err
	}
	for _, id := range ids {
		out.recent[id] = true
	}
	return out, nil
}

func (f *exposedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	if f.recent[item.ID] {
		return true, nil
	}
	return f.checkBloom(ctx, rctx, item)
}

func (f *ExposedFilter) ShouldFilter(
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

func (f *ExposedFilter) checkBloom(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Store == nil || f.BloomFilterDayWindow <= 0 || rctx == nil || rctx.UserID == "" {
		return false, nil
	}
	exists, err := f.Store.CheckExposedInBloomFilter(ctx, rctx.UserID, item.ID, f.keyPrefix(), now(rctx), f.BloomFilterDayWindow)
	if err != nil {
		return false, err
	}
	// 布隆过滤器可能误判，宁可多过滤
	return exists, nil
}

func (f *ExposedFilter) keyPrefix() string {
	if f.KeyPrefix == "" {
		return DefaultExposedKeyPrefix
	}
	return f.KeyPrefix
}

func now(rctx *core.RecommendContext) time.Time {
	if rctx != nil && !rctx.Now.IsZero() {
		return rctx.Now
	}
	return time.Now()
}
