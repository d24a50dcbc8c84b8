package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rushteam/foryou/core"
)

const (
	DefaultBloomCapacity          = 10000
	DefaultBloomFalsePositiveRate = 0.01
)

// BloomChecker 是基于 core.Store 和 bits-and-blooms/bloom 的曝光布隆过滤器。
// 实现 filter.BloomFilterChecker；序列化后的过滤器以普通 key 存储，
// 可落在 MemoryStore 或 RedisStore 上。
type BloomChecker struct {
	store core.Store

	// capacity 是预期容量（元素数量）
	capacity uint
	// falsePositiveRate 是期望的误判率（例如 0.01 表示 1%）
	falsePositiveRate float64

	// 写入时加锁，保证同进程内 读-改-写 不丢更新
	mu sync.Mutex
}

// NewBloomChecker 创建布隆过滤器检查器；capacity / falsePositiveRate 非法时使用默认值。
func NewBloomChecker(store core.Store, capacity uint, falsePositiveRate float64) *BloomChecker {
	if capacity == 0 {
		capacity = DefaultBloomCapacity
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultBloomFalsePositiveRate
	}
	return &BloomChecker{
		store:             store,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
}

func (b *BloomChecker) load(ctx context.Context, key string) (*bloom.BloomFilter, error) {
	data, err := b.store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bloom filter %s: %w", key, err)
	}
	bf := bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize bloom filter %s: %w", key, err)
	}
	return bf, nil
}

// CheckInBloomFilter 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在。
// key 不存在时返回 false。
func (b *BloomChecker) CheckInBloomFilter(ctx context.Context, key string, itemID string) (bool, error) {
	bf, err := b.load(ctx, key)
	if err != nil || bf == nil {
		return false, err
	}
	return bf.TestString(itemID), nil
}

// Add 将 itemIDs 加入 key 对应的布隆过滤器，ttl 单位秒（0 表示不过期）。
func (b *BloomChecker) Add(ctx context.Context, key string, ttl int, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	bf, err := b.load(ctx, key)
	if err != nil {
		return err
	}
	if bf == nil {
		bf = bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	}
	for _, id := range itemIDs {
		bf.AddString(id)
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize bloom filter %s: %w", key, err)
	}
	if err := b.store.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		return fmt.Errorf("save bloom filter %s: %w", key, err)
	}
	return nil
}
