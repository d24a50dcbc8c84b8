package filter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/foryou/core"
)

// BloomFilterChecker 是布隆过滤器检查器接口，由 store.BloomChecker 实现。
type BloomFilterChecker interface {
	// CheckInBloomFilter 检查 itemID 是否在 key 对应的布隆过滤器中
	// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在
	CheckInBloomFilter(ctx context.Context, key string, itemID string) (bool, error)
}

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store core.Store

	// BloomFilterChecker 是可选的布隆过滤器检查器
	// 如果为 nil，CheckExposedInBloomFilter 总是返回 false
	BloomFilterChecker BloomFilterChecker
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// NewStoreAdapterWithBloomFilter 创建一个带布隆过滤器检查器的 core.Store 适配器。
func NewStoreAdapterWithBloomFilter(s core.Store, checker BloomFilterChecker) *StoreAdapter {
	return &StoreAdapter{
		store:              s,
		BloomFilterChecker: checker,
	}
}

// GetBlacklist 从 Store 读取 JSON 数组形式的 ID 列表。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserBlocks 从 Store 读取用户拉黑列表。
func (a *StoreAdapter) GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+userID)
}

// GetExposedItems 从 Store 读取用户曝光历史。
// 支持纯 ID 列表，以及带时间戳的 [{"item_id":..,"timestamp":..}] 列表（按 timeWindow 截取）。
func (a *StoreAdapter) GetExposedItems(ctx context.Context, userID string, keyPrefix string, now time.Time, timeWindow int64) ([]string, error) {
	data, err := a.store.Get(ctx, keyPrefix+":"+userID)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		return ids, nil
	}

	var items []struct {
		ItemID    string `json:"item_id"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	cutoff := now.Unix() - timeWindow
	ids = make([]string, 0, len(items))
	for _, item := range items {
		if timeWindow > 0 && item.Timestamp < cutoff {
			continue
		}
		ids = append(ids, item.ItemID)
	}
	return ids, nil
}

// CheckExposedInBloomFilter 依次检查最近 dayWindow 天（含当天）的布隆过滤器。
// 某天的过滤器读取失败时跳过该天。
func (a *StoreAdapter) CheckExposedInBloomFilter(ctx context.Context, userID string, itemID string, keyPrefix string, now time.Time, dayWindow int) (bool, error) {
	if a.BloomFilterChecker == nil || dayWindow <= 0 {
		return false, nil
	}

	for i := 0; i < dayWindow; i++ {
		key := core.BloomKey(keyPrefix, userID, now.AddDate(0, 0, -i))
		exists, err := a.BloomFilterChecker.CheckInBloomFilter(ctx, key, itemID)
		if err != nil {
			continue
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}
