package core

import (
	"fmt"
	"strings"
	"time"
)

// Kind 是用户对文章的交互类型。
type Kind string

const (
	KindLike    Kind = "like"
	KindDislike Kind = "dislike"
	KindView    Kind = "view"
)

// Valid 判断是否为引擎可识别的交互类型。
func (k Kind) Valid() bool {
	switch k {
	case KindLike, KindDislike, KindView:
		return true
	default:
		return false
	}
}

// ParseKind 将前端动作映射为交互类型。
// "unlike" 视为 dislike；"save"/"unsave" 等非画像动作返回错误。
func ParseKind(action string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "like":
		return KindLike, nil
	case "dislike", "unlike":
		return KindDislike, nil
	case "view":
		return KindView, nil
	default:
		return "", NewDomainError(ModuleInteraction, ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: unsupported action %q", action))
	}
}

// InteractionEvent 是一次交互记录，记录后不可变。
// ArticleText 是交互发生时文章的 title + description 快照。
type InteractionEvent struct {
	UserID      string    `json:"user_id"`
	ArticleID   string    `json:"article_id"`
	Kind        Kind      `json:"kind"`
	ArticleText string    `json:"article_text"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewInteractionEvent 基于文章快照创建交互事件。
func NewInteractionEvent(userID string, a Article, kind Kind, at time.Time) InteractionEvent {
	return InteractionEvent{
		UserID:      userID,
		ArticleID:   a.ID,
		Kind:        kind,
		ArticleText: a.Text(),
		Timestamp:   at.UTC(),
	}
}

// Validate 校验事件字段。
func (e InteractionEvent) Validate() error {
	switch {
	case e.UserID == "":
		return NewDomainError(ModuleInteraction, ErrorCodeInvalidInput, "interaction: empty user id")
	case e.ArticleID == "":
		return NewDomainError(ModuleInteraction, ErrorCodeInvalidInput, "interaction: empty article id")
	case !e.Kind.Valid():
		return NewDomainError(ModuleInteraction, ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: invalid kind %q", e.Kind))
	case e.Timestamp.IsZero():
		return NewDomainError(ModuleInteraction, ErrorCodeInvalidInput, "interaction: zero timestamp")
	}
	return nil
}
