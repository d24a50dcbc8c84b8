package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/foryou/core"
)

// DefaultInteractionKeyPrefix 交互日志的默认 key 前缀，实际 key 为 {prefix}:{userID}
const DefaultInteractionKeyPrefix = "user:interactions"

// KVInteractionLog 基于 KeyValueStore 有序集合的交互日志：
// 每个用户一个有序集合，score 为毫秒时间戳，member 为事件 JSON。
type KVInteractionLog struct {
	store     core.KeyValueStore
	keyPrefix string
}

// NewKVInteractionLog 创建交互日志，keyPrefix 为空时使用默认前缀。
func NewKVInteractionLog(store core.KeyValueStore, keyPrefix string) *KVInteractionLog {
	if keyPrefix == "" {
		keyPrefix = DefaultInteractionKeyPrefix
	}
	return &KVInteractionLog{store: store, keyPrefix: keyPrefix}
}

func (l *KVInteractionLog) key(userID string) string {
	return l.keyPrefix + ":" + userID
}

func (l *KVInteractionLog) Record(ctx context.Context, event core.InteractionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	event.Timestamp = event.Timestamp.UTC()
	member, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("interaction log: marshal event: %w", err)
	}
	if err := l.store.ZAdd(ctx, l.key(event.UserID), float64(event.Timestamp.UnixMilli()), string(member)); err != nil {
		return fmt.Errorf("interaction log: zadd: %w", err)
	}
	return nil
}

// History 返回最近 limit 条交互（最新在前），limit <= 0 表示全部。
// 无法解析的成员被跳过。
func (l *KVInteractionLog) History(ctx context.Context, userID string, limit int) ([]core.InteractionEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := l.store.ZRange(ctx, l.key(userID), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("interaction log: zrange: %w", err)
	}

	events := make([]core.InteractionEvent, 0, len(members))
	for _, m := range members {
		var ev core.InteractionEvent
		if err := json.Unmarshal([]byte(m), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	// score 精度为毫秒，这里按完整时间戳再排一次
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

var _ core.InteractionLog = (*KVInteractionLog)(nil)
