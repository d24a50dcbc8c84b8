package source

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/foryou/core"
)

const (
	DefaultCacheTTL       = 10 * time.Minute
	DefaultCacheKeyPrefix = "foryou:candidates"
)

// Cached 为 ArticleSource 加一层 TTL 缓存。
//
// 缓存 key 由类别列表（保持调用顺序）与 limit 精确组成，不同请求参数不共享结果；
// 同一 key 的并发未命中通过 singleflight 合并为一次上游调用。
// 缓存读写失败时直接回源，不影响结果。
type Cached struct {
	inner     core.ArticleSource
	store     core.Store
	ttl       time.Duration
	keyPrefix string
	logger    zerolog.Logger

	group singleflight.Group
}

// CachedOption 配置 Cached。
type CachedOption func(*Cached)

func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) { c.ttl = ttl }
}

func WithCacheKeyPrefix(prefix string) CachedOption {
	return func(c *Cached) { c.keyPrefix = prefix }
}

func WithCacheLogger(l zerolog.Logger) CachedOption {
	return func(c *Cached) { c.logger = l }
}

func NewCached(inner core.ArticleSource, store core.Store, opts ...CachedOption) *Cached {
	c := &Cached{
		inner:     inner,
		store:     store,
		ttl:       DefaultCacheTTL,
		keyPrefix: DefaultCacheKeyPrefix,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "source.cached").Logger()
	return c
}

func (c *Cached) key(categories []string, limit int) string {
	return c.keyPrefix + ":" + strings.Join(categories, ",") + ":" + strconv.Itoa(limit)
}

func (c *Cached) Candidates(ctx context.Context, categories []string, limit int) ([]core.Article, error) {
	key := c.key(categories, limit)

	if data, err := c.store.Get(ctx, key); err == nil {
		var articles []core.Article
		if err := json.Unmarshal(data, &articles); err == nil {
			c.logger.Debug().Str("key", key).Msg("cache hit")
			return articles, nil
		}
	} else if !core.IsStoreNotFound(err) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	articles, err := c.load(ctx, key, categories, limit)
	if err != nil {
		return nil, err
	}
	// singleflight 的结果在调用方之间共享，复制一份
	out := make([]core.Article, len(articles))
	copy(out, articles)
	return out, nil
}

// Refresh 绕过缓存回源并覆盖缓存，用于定时预热。
func (c *Cached) Refresh(ctx context.Context, categories []string, limit int) error {
	_, err := c.load(ctx, c.key(categories, limit), categories, limit)
	return err
}

// load 回源并写缓存，同一 key 的并发调用合并为一次。
func (c *Cached) load(ctx context.Context, key string, categories []string, limit int) ([]core.Article, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		articles, err := c.inner.Candidates(ctx, categories, limit)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(articles); err == nil {
			if err := c.store.Set(ctx, key, data, int(c.ttl/time.Second)); err != nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
		return articles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Article), nil
}

var _ core.ArticleSource = (*Cached)(nil)
