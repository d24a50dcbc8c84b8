package core

import (
	"context"
	"time"
)

// InteractionLog 是交互日志的领域接口（追加写，按时间倒序读取）。
//
// 实现：
//   - store.KVInteractionLog（基于 KeyValueStore：MemoryStore / RedisStore）
//   - store.SQLiteLog
type InteractionLog interface {
	// Record 追加一条交互事件
	Record(ctx context.Context, event InteractionEvent) error

	// History 返回用户最近的 limit 条交互，最新在前；limit <= 0 表示不限制
	History(ctx context.Context, userID string, limit int) ([]InteractionEvent, error)
}

// ArticleSource 是候选文章源的领域接口。
// 返回结果按文章 ID 去重，顺序不保证。
type ArticleSource interface {
	Candidates(ctx context.Context, categories []string, limit int) ([]Article, error)
}

// IdentityProvider 提供当前用户的偏好与会话信息。
type IdentityProvider interface {
	Preferences(ctx context.Context, userID string) (*Preferences, error)
}

// Preferences 是用户偏好 + 会话态。
type Preferences struct {
	// Categories 是用户偏好的类别，为空时使用默认类别
	Categories []string `json:"categories" yaml:"categories"`

	// Consumed 是本次会话已消费（已展示/已读）的文章 ID
	Consumed []string `json:"consumed,omitempty" yaml:"consumed,omitempty"`

	// SessionStart 非零时，该时间之后的 view 事件也视为本会话已消费
	SessionStart time.Time `json:"session_start,omitempty" yaml:"session_start,omitempty"`
}

// StaticPreferences 是固定偏好的 IdentityProvider，用于测试/开发。
type StaticPreferences map[string]*Preferences

func (s StaticPreferences) Preferences(_ context.Context, userID string) (*Preferences, error) {
	if p, ok := s[userID]; ok && p != nil {
		return p, nil
	}
	return &Preferences{}, nil
}
