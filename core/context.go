package core

import (
	"time"

	"github.com/rushteam/foryou/pkg/utils"
)

// RecommendContext 承载用户/会话/画像信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID    string
	RequestID string

	// Profile 是本次请求构建的兴趣画像
	Profile *InterestProfile

	// History 是本次请求读取的交互历史（最新在前，已按窗口截断）
	History []InteractionEvent

	// Preferences 来自 IdentityProvider
	Preferences *Preferences

	// Categories 是本次召回使用的类别（偏好为空时为默认类别）
	Categories []string

	// Now 是本次请求的时间基准，保证同一请求内时间衰减一致
	Now time.Time

	// Labels 是用户级标签，可驱动 Pipeline 行为（例如 personalized=false）
	Labels map[string]utils.Label

	// Params 请求级参数
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ConsumedIDs 汇总本会话已消费的文章：偏好中显式给出的 + SessionStart 之后 view 过的。
func (rctx *RecommendContext) ConsumedIDs() map[string]bool {
	out := make(map[string]bool)
	if rctx == nil || rctx.Preferences == nil {
		return out
	}
	for _, id := range rctx.Preferences.Consumed {
		out[id] = true
	}
	if start := rctx.Preferences.SessionStart; !start.IsZero() {
		for _, ev := range rctx.History {
			if ev.Kind == KindView && !ev.Timestamp.Before(start) {
				out[ev.ArticleID] = true
			}
		}
	}
	return out
}
