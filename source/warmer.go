package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultWarmSpec 与默认缓存 TTL 对齐，缓存过期前完成预热
const DefaultWarmSpec = "@every 9m"

// Warmer 按 cron 表达式定时刷新 Cached 中的热门类别组合，避免请求路径上的冷启动。
type Warmer struct {
	cached  *Cached
	sets    [][]string
	limit   int
	timeout time.Duration
	cron    *cron.Cron
	logger  zerolog.Logger
}

// NewWarmer 创建预热器。sets 是需要预热的类别组合（与请求时的顺序一致才能命中缓存）。
func NewWarmer(cached *Cached, spec string, sets [][]string, limit int, logger zerolog.Logger) (*Warmer, error) {
	if cached == nil {
		return nil, errors.New("warmer: cached source must not be nil")
	}
	if spec == "" {
		spec = DefaultWarmSpec
	}
	w := &Warmer{
		cached:  cached,
		sets:    sets,
		limit:   limit,
		timeout: 30 * time.Second,
		cron:    cron.New(),
		logger:  logger.With().Str("component", "source.warmer").Logger(),
	}
	if _, err := w.cron.AddFunc(spec, func() { w.Warm(context.Background()) }); err != nil {
		return nil, fmt.Errorf("warmer: add cron %q: %w", spec, err)
	}
	return w, nil
}

// Warm 立即刷新全部类别组合，返回失败的组合数。
func (w *Warmer) Warm(ctx context.Context) int {
	failed := 0
	for _, cats := range w.sets {
		rctx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.cached.Refresh(rctx, cats, w.limit)
		cancel()
		if err != nil {
			failed++
			w.logger.Warn().Err(err).Strs("categories", cats).Msg("warm candidates failed")
			continue
		}
		w.logger.Debug().Strs("categories", cats).Msg("candidates warmed")
	}
	return failed
}

// Start 开始定时预热。
func (w *Warmer) Start() {
	w.cron.Start()
}

// Stop 停止调度并等待进行中的预热结束。
func (w *Warmer) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}
