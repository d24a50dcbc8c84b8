package breaker

import (
	"context"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/foryou/core"
)

// Source 为 ArticleSource 加熔断。
type Source struct {
	inner core.ArticleSource
	cb    *gobreaker.CircuitBreaker[[]core.Article]
}

func NewSource(inner core.ArticleSource, cfg Config, logger zerolog.Logger) *Source {
	if cfg.Name == "" {
		cfg.Name = "article-source"
	}
	return &Source{inner: inner, cb: New[[]core.Article](cfg, logger)}
}

func (s *Source) Candidates(ctx context.Context, categories []string, limit int) ([]core.Article, error) {
	articles, err := s.cb.Execute(func() ([]core.Article, error) {
		return s.inner.Candidates(ctx, categories, limit)
	})
	if err != nil {
		return nil, unavailable(core.ModuleSource, "source: circuit open", err)
	}
	return articles, nil
}

// State 返回当前熔断状态（closed / half-open / open）。
func (s *Source) State() string {
	return s.cb.State().String()
}

// Log 为 InteractionLog 加熔断，读写共用一个熔断器。
type Log struct {
	inner core.InteractionLog
	cb    *gobreaker.CircuitBreaker[any]
}

func NewLog(inner core.InteractionLog, cfg Config, logger zerolog.Logger) *Log {
	if cfg.Name == "" {
		cfg.Name = "interaction-log"
	}
	return &Log{inner: inner, cb: New[any](cfg, logger)}
}

func (l *Log) Record(ctx context.Context, event core.InteractionEvent) error {
	_, err := l.cb.Execute(func() (any, error) {
		return nil, l.inner.Record(ctx, event)
	})
	return unavailable(core.ModuleInteraction, "interaction: circuit open", err)
}

func (l *Log) History(ctx context.Context, userID string, limit int) ([]core.InteractionEvent, error) {
	v, err := l.cb.Execute(func() (any, error) {
		return l.inner.History(ctx, userID, limit)
	})
	if err != nil {
		return nil, unavailable(core.ModuleInteraction, "interaction: circuit open", err)
	}
	events, _ := v.([]core.InteractionEvent)
	return events, nil
}

func (l *Log) State() string {
	return l.cb.State().String()
}

var (
	_ core.ArticleSource  = (*Source)(nil)
	_ core.InteractionLog = (*Log)(nil)
)
