package store

import (
	"context"

	"github.com/rushteam/foryou/core"
)

// DefaultExposureKeyPrefix 与 filter.DefaultExposedKeyPrefix 保持一致
const DefaultExposureKeyPrefix = "user:exposed"

// ExposureLog 装饰 core.InteractionLog：记录交互的同时把文章写入当天的曝光布隆过滤器，
// 供 filter.ExposedFilter 在较长时间窗口内过滤已看过的文章。
type ExposureLog struct {
	core.InteractionLog

	Bloom     *BloomChecker
	KeyPrefix string
	// TTLDays 布隆过滤器保留天数，应不小于 ExposedFilter 的 BloomFilterDayWindow
	TTLDays int
}

// NewExposureLog 创建曝光装饰器。
func NewExposureLog(inner core.InteractionLog, bloom *BloomChecker, keyPrefix string, ttlDays int) *ExposureLog {
	if keyPrefix == "" {
		keyPrefix = DefaultExposureKeyPrefix
	}
	return &ExposureLog{InteractionLog: inner, Bloom: bloom, KeyPrefix: keyPrefix, TTLDays: ttlDays}
}

// Record 先写交互日志；写入成功后再更新布隆过滤器，布隆过滤器失败不影响交互记录。
func (l *ExposureLog) Record(ctx context.Context, event core.InteractionEvent) error {
	if err := l.InteractionLog.Record(ctx, event); err != nil {
		return err
	}
	if l.Bloom == nil {
		return nil
	}
	key := core.BloomKey(l.KeyPrefix, event.UserID, event.Timestamp)
	ttl := 0
	if l.TTLDays > 0 {
		ttl = l.TTLDays * 24 * 3600
	}
	// 曝光过滤是尽力而为
	_ = l.Bloom.Add(ctx, key, ttl, event.ArticleID)
	return nil
}
