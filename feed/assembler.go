// Package feed 组装 "For You" 个性化 Feed：
//
//	交互历史 → 兴趣画像 → 候选召回 → 过滤 → 相似度排序 → 配置化重排 → Top-K
//
// Assembler 构造后不可变，可并发调用；每次请求独立构建画像与 TF-IDF 空间，请求之间不共享可变状态。
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rushteam/foryou/config"
	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/filter"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/utils"
	"github.com/rushteam/foryou/profile"
	"github.com/rushteam/foryou/rank"
	"github.com/rushteam/foryou/recall"
	"github.com/rushteam/foryou/rerank"
)

// Feed 是一次 ForYouFeed 调用的结果。
type Feed struct {
	RequestID string                 `json:"request_id"`
	UserID    string                 `json:"user_id"`
	Items     []core.RankedCandidate `json:"items"`

	// Personalized 为 false 表示画像为空或 like 数不足，结果按发布时间排序
	Personalized bool `json:"personalized"`

	// Candidates 是过滤前召回的候选数
	Candidates  int       `json:"candidates"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Assembler 是 Feed 组装器。
type Assembler struct {
	cfg      Config
	log      core.InteractionLog
	source   core.ArticleSource
	identity core.IdentityProvider

	builder    *profile.Builder
	similarity *rank.SimilarityNode
	filters    []filter.Filter
	extra      []pipeline.Node

	sources  []namedSource
	blocks   filter.UserBlockStore
	exposure filter.ExposedStore
	custom   []filter.Filter

	logger  zerolog.Logger
	metrics *metrics
	now     func() time.Time
}

// Option 配置 Assembler。
type Option func(*Assembler)

// WithLogger 设置日志，默认不输出。
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithIdentity 设置偏好来源；未设置时使用默认类别。
func WithIdentity(p core.IdentityProvider) Option {
	return func(a *Assembler) { a.identity = p }
}

// WithMetrics 在 reg 上注册 Prometheus 指标。
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *Assembler) { a.metrics = newMetrics(reg) }
}

// WithClock 替换时间来源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

type namedSource struct {
	name   string
	source core.ArticleSource
}

// WithSource 追加一个候选源，与主源并发召回并按 ID 去重（主源优先）。
func WithSource(name string, src core.ArticleSource) Option {
	return func(a *Assembler) { a.sources = append(a.sources, namedSource{name: name, source: src}) }
}

// WithFilters 追加自定义过滤器，位于内置过滤器之后。
func WithFilters(filters ...filter.Filter) Option {
	return func(a *Assembler) { a.custom = append(a.custom, filters...) }
}

// WithBlockStore 从存储读取用户持久化的拉黑列表，与画像中的 dislike 合并过滤。
func WithBlockStore(s filter.UserBlockStore) Option {
	return func(a *Assembler) { a.blocks = s }
}

// WithExposure 启用曝光过滤，窗口由 Config.ExposedDayWindow 决定。
func WithExposure(s filter.ExposedStore) Option {
	return func(a *Assembler) { a.exposure = s }
}

// New 校验配置并创建 Assembler，配置错误返回 INVALID_CONFIG。
func New(log core.InteractionLog, source core.ArticleSource, cfg Config, opts ...Option) (*Assembler, error) {
	if log == nil || source == nil {
		return nil, invalidConfig("interaction log and article source are required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Assembler{
		cfg:    cfg,
		log:    log,
		source: source,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = newMetrics(nil)
	}
	a.logger = a.logger.With().Str("component", "feed").Logger()

	a.builder = cfg.profileBuilder()
	a.similarity = &rank.SimilarityNode{Ranker: cfg.ranker(), Normalizer: cfg.normalizer()}

	filters, err := a.buildFilters()
	if err != nil {
		return nil, err
	}
	a.filters = filters

	if pc := cfg.extraPipelineConfig(); pc != nil {
		p, err := config.BuildPipeline(pc)
		if err != nil {
			return nil, invalidConfig("extra_nodes", err)
		}
		a.extra = p.Nodes
	}
	return a, nil
}

func (a *Assembler) buildFilters() ([]filter.Filter, error) {
	filters := []filter.Filter{
		&filter.DislikedFilter{Store: a.blocks},
		&filter.ConsumedFilter{},
	}
	if len(a.cfg.BlockedCategories) > 0 || len(a.cfg.BlockedSources) > 0 {
		filters = append(filters, &filter.BlacklistFilter{
			Categories: a.cfg.BlockedCategories,
			Sources:    a.cfg.BlockedSources,
		})
	}
	if a.cfg.ExcludeExpr != "" {
		f, err := filter.NewExprFilter(a.cfg.ExcludeExpr)
		if err != nil {
			return nil, invalidConfig("exclude_expr", err)
		}
		filters = append(filters, f)
	}
	if a.exposure != nil && a.cfg.ExposedDayWindow > 0 {
		filters = append(filters, &filter.ExposedFilter{
			Store:                a.exposure,
			BloomFilterDayWindow: a.cfg.ExposedDayWindow,
		})
	}
	return append(filters, a.custom...), nil
}

// ForYouFeed 为 userID 生成个性化 Feed。
//
// topK 为 0 时使用 Config.TopK，小于 0 返回 INVALID_INPUT。
// 交互日志或文章源失败时返回 UNAVAILABLE（errors.Is(err, core.ErrFeedUnavailable)），不返回部分结果。
// 没有候选时返回空 Feed，不是错误。
func (a *Assembler) ForYouFeed(ctx context.Context, userID string, topK int) (*Feed, error) {
	start := time.Now()
	personalized := false
	outcome := outcomeOK
	defer func() {
		a.metrics.observeRequest(outcome, personalized, time.Since(start))
	}()

	switch {
	case userID == "":
		outcome = outcomeInvalid
		return nil, core.NewDomainError(core.ModuleFeed, core.ErrorCodeInvalidInput, "feed: empty user id")
	case topK < 0:
		outcome = outcomeInvalid
		return nil, core.NewDomainError(core.ModuleFeed, core.ErrorCodeInvalidInput,
			fmt.Sprintf("feed: top_k must be >= 0, got %d", topK))
	case topK == 0:
		topK = a.cfg.TopK
	}

	now := a.now().UTC()
	requestID := uuid.NewString()
	logger := a.logger.With().Str("request_id", requestID).Str("user_id", userID).Logger()

	history, err := a.log.History(ctx, userID, a.cfg.HistoryWindow)
	if err != nil {
		outcome = outcomeUnavailable
		logger.Warn().Err(err).Msg("interaction log unavailable")
		return nil, unavailable("interaction log", err)
	}

	prof := a.builder.Build(userID, history)
	personalized = !prof.Empty() && prof.Likes >= a.cfg.MinLikes
	if !personalized {
		prof = recencyOnly(prof)
	}

	prefs := a.preferences(ctx, logger, userID)
	rctx := &core.RecommendContext{
		UserID:      userID,
		RequestID:   requestID,
		Profile:     prof,
		History:     history,
		Preferences: prefs,
		Categories:  a.cfg.categories(prefs),
		Now:         now,
		Params:      map[string]any{"top_k": topK},
	}
	rctx.PutLabel("personalized", utils.NewLabel(fmt.Sprint(personalized), "feed"))

	candidates := 0
	var failed pipeline.Node
	p := a.pipeline(topK, func(node pipeline.Node, _, out int, _ time.Duration, err error) {
		if err != nil {
			failed = node
		}
		if node.Kind() == pipeline.KindRecall {
			candidates = out
		}
	})
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		outcome = outcomeUnavailable
		collaborator := "article source"
		if failed != nil && failed.Kind() != pipeline.KindRecall {
			collaborator = "pipeline node " + failed.Name()
		}
		logger.Warn().Err(err).Str("collaborator", collaborator).Strs("categories", rctx.Categories).Msg("feed pipeline failed")
		return nil, unavailable(collaborator, err)
	}
	a.metrics.candidates.Observe(float64(candidates))

	feed := &Feed{
		RequestID:    requestID,
		UserID:       userID,
		Items:        make([]core.RankedCandidate, 0, len(items)),
		Personalized: personalized,
		Candidates:   candidates,
		GeneratedAt:  now,
	}
	for _, it := range items {
		feed.Items = append(feed.Items, it.Ranked())
	}
	if len(feed.Items) == 0 {
		outcome = outcomeEmpty
	}

	logger.Debug().
		Int("history", len(history)).
		Int("likes", prof.Likes).
		Bool("personalized", personalized).
		Int("candidates", candidates).
		Int("items", len(feed.Items)).
		Dur("elapsed", time.Since(start)).
		Msg("feed assembled")
	return feed, nil
}

func (a *Assembler) pipeline(topK int, observe pipeline.ObserverFunc) *pipeline.Pipeline {
	nodes := make([]pipeline.Node, 0, len(a.extra)+4)
	nodes = append(nodes,
		a.recallNode(),
		&filter.FilterNode{Filters: a.filters, OnError: a.onFilterError},
		a.similarity,
	)
	nodes = append(nodes, a.extra...)
	nodes = append(nodes, &rerank.TopNNode{N: topK})

	return &pipeline.Pipeline{
		Nodes: nodes,
		Observer: pipeline.ObserverFunc(func(node pipeline.Node, in, out int, elapsed time.Duration, err error) {
			a.metrics.ObserveNode(node, in, out, elapsed, err)
			observe(node, in, out, elapsed, err)
		}),
	}
}

// recallNode 只有主源且不限时时直接召回，否则并发 fan-out。
func (a *Assembler) recallNode() pipeline.Node {
	primary := &recall.ArticleRecall{Source: a.source, Limit: a.cfg.CandidateLimit}
	if len(a.sources) == 0 && a.cfg.SourceTimeout <= 0 {
		return primary
	}
	sources := make([]recall.Source, 0, len(a.sources)+1)
	sources = append(sources, primary)
	for _, s := range a.sources {
		sources = append(sources, &recall.ArticleRecall{Label: s.name, Source: s.source, Limit: a.cfg.CandidateLimit})
	}
	return &recall.Fanout{
		Sources:       sources,
		Dedup:         true,
		Timeout:       a.cfg.SourceTimeout,
		MergeStrategy: recall.MergePriority,
	}
}

func (a *Assembler) onFilterError(name string, err error) {
	a.metrics.filterErrors.WithLabelValues(name).Inc()
	a.logger.Warn().Err(err).Str("filter", name).Msg("filter failed, item kept")
}

// preferences 读取偏好；失败时记录日志并使用默认类别。
func (a *Assembler) preferences(ctx context.Context, logger zerolog.Logger, userID string) *core.Preferences {
	if a.identity == nil {
		return &core.Preferences{}
	}
	prefs, err := a.identity.Preferences(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("preferences unavailable, using default categories")
		return &core.Preferences{}
	}
	if prefs == nil {
		return &core.Preferences{}
	}
	return prefs
}

// Record 校验并写入一条交互事件。
func (a *Assembler) Record(ctx context.Context, event core.InteractionEvent) error {
	if err := event.Validate(); err != nil {
		a.metrics.records.WithLabelValues(string(event.Kind), "invalid").Inc()
		return err
	}
	if err := a.log.Record(ctx, event); err != nil {
		a.metrics.records.WithLabelValues(string(event.Kind), "error").Inc()
		if core.IsInvalidInput(err) {
			return err
		}
		a.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("record interaction failed")
		return core.WrapDomainError(core.ModuleInteraction, core.ErrorCodeUnavailable, "interaction: record failed", err)
	}
	a.metrics.records.WithLabelValues(string(event.Kind), "ok").Inc()
	return nil
}

// Config 返回生效的配置副本。
func (a *Assembler) Config() Config {
	return a.cfg
}

// recencyOnly 去掉画像中的正向文档；负向文档保留，dislike 在非个性化时同样降权。
func recencyOnly(p *core.InterestProfile) *core.InterestProfile {
	out := *p
	out.Document = ""
	return &out
}

func unavailable(collaborator string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return core.WrapDomainError(core.ModuleFeed, core.ErrorCodeUnavailable, "feed: "+collaborator+" unavailable", err)
}
