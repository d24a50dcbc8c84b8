package filter

import (
	"context"
	"strings"

	"github.com/rushteam/foryou/core"
)

// BlacklistFilter 是黑名单过滤器：按文章 ID、类别、来源屏蔽。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单文章 ID 列表
	ItemIDs []string

	// Categories 屏蔽的类别（大小写不敏感）
	Categories []string

	// Sources 屏蔽的来源（大小写不敏感）
	Sources []string

	// Store 用于从存储中读取黑名单 ID（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单文章 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个按 ID 的黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{
		ItemIDs: itemIDs,
		Key:     key,
	}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

type blacklistSet struct {
	ids        map[string]bool
	categories map[string]bool
	sources    map[string]bool
}

func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	set := &blacklistSet{
		ids:        make(map[string]bool, len(f.ItemIDs)),
		categories: lowerSet(f.Categories),
		sources:    lowerSet(f.Sources),
	}
	for _, id := range f.ItemIDs {
		set.ids[id] = true
	}
	if f.Store != nil && f.Key != "" {
		ids, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		for _, id := range ids {
			set.ids[id] = true
		}
	}
	return set, nil
}

func (s *blacklistSet) Name() string { return "filter.blacklist" }

func (s *blacklistSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	if s.ids[item.ID] {
		return true, nil
	}
	if c := item.Article.Category; c != "" && s.categories[strings.ToLower(c)] {
		return true, nil
	}
	if src := item.Article.Source; src != "" && s.sources[strings.ToLower(src)] {
		return true, nil
	}
	return false, nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	set, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return set.ShouldFilter(ctx, rctx, item)
}

func lowerSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return out
}
