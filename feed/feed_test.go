package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/foryou/config"
	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/source"
	"github.com/rushteam/foryou/store"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func art(id, title, category string, age time.Duration) core.Article {
	return core.Article{ID: id, Title: title, Category: category, PublishedAt: now.Add(-age)}
}

func centralBankCandidates() *source.Static {
	return source.NewStatic(
		art("a", "Federal Reserve raises rates", "business", time.Hour),
		art("b", "Tech company earnings beat forecast", "technology", time.Hour),
		art("c", "Local weather report", "general", time.Hour),
	)
}

func newLog(t *testing.T) core.InteractionLog {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	return store.NewKVInteractionLog(kv, "")
}

func newAssembler(t *testing.T, log core.InteractionLog, src core.ArticleSource, cfg Config, opts ...Option) *Assembler {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	a, err := New(log, src, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func record(t *testing.T, a *Assembler, userID string, article core.Article, kind core.Kind, ago time.Duration) {
	t.Helper()
	if err := a.Record(context.Background(), core.NewInteractionEvent(userID, article, kind, now.Add(-ago))); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func ids(f *Feed) []string {
	out := make([]string, len(f.Items))
	for i, it := range f.Items {
		out[i] = it.Article.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestForYouFeed_CentralBank(t *testing.T) {
	a := newAssembler(t, newLog(t), centralBankCandidates(), DefaultConfig())
	record(t, a, "u1", core.Article{ID: "l1", Title: "central bank interest rate hike"}, core.KindLike, 2*time.Hour)
	record(t, a, "u1", core.Article{ID: "v1", Title: "quarterly earnings report"}, core.KindView, time.Hour)

	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("ForYouFeed: %v", err)
	}
	if got, want := ids(f), []string{"a", "b", "c"}; !equalIDs(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if !f.Personalized || f.Candidates != 3 || f.RequestID == "" {
		t.Errorf("feed = %+v", f)
	}
	if f.Items[0].Similarity <= f.Items[1].Similarity || f.Items[2].Similarity != 0 {
		t.Errorf("similarities = %v %v %v", f.Items[0].Similarity, f.Items[1].Similarity, f.Items[2].Similarity)
	}
}

func TestForYouFeed_Idempotent(t *testing.T) {
	a := newAssembler(t, newLog(t), centralBankCandidates(), DefaultConfig())
	record(t, a, "u1", core.Article{ID: "l1", Title: "central bank interest rate hike"}, core.KindLike, time.Hour)

	first, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != len(second.Items) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i] != second.Items[i] {
			t.Errorf("item %d differs: %+v vs %+v", i, first.Items[i], second.Items[i])
		}
	}
	if first.RequestID == second.RequestID {
		t.Errorf("request ids should be unique")
	}
}

func TestForYouFeed_EmptyHistory(t *testing.T) {
	src := source.NewStatic(
		art("old", "Markets rally", "business", 48*time.Hour),
		art("new", "Weather turns", "general", time.Hour),
		art("mid", "Election results", "general", 10*time.Hour),
	)
	a := newAssembler(t, newLog(t), src, DefaultConfig())

	f, err := a.ForYouFeed(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(f), []string{"new", "mid", "old"}; !equalIDs(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if f.Personalized {
		t.Errorf("empty history must not be personalized")
	}
}

func TestForYouFeed_MinLikes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLikes = 2
	src := source.NewStatic(
		art("rates", "Central bank rate decision", "business", 20*time.Hour),
		art("fresh", "Local weather", "general", time.Hour),
	)
	a := newAssembler(t, newLog(t), src, cfg)
	record(t, a, "u1", core.Article{ID: "l1", Title: "central bank interest rate hike"}, core.KindLike, time.Hour)

	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Personalized || f.Items[0].Article.ID != "fresh" {
		t.Errorf("below min_likes want recency order, got %v personalized=%v", ids(f), f.Personalized)
	}
}

func TestForYouFeed_DislikeOnly(t *testing.T) {
	crash := core.Article{ID: "x", Title: "Bitcoin price crash wipes out crypto traders", Category: "business"}
	tests := []struct {
		name     string
		minLikes int
		likes    []core.Article
	}{
		{"dislikes only", 0, nil},
		{"below min_likes", 2, []core.Article{{ID: "l1", Title: "Football match report"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinLikes = tt.minLikes
			src := source.NewStatic(
				art("btc", "Bitcoin price surges as crypto traders pile in", "business", time.Hour),
				art("vote", "Election results announced", "general", 2*time.Hour),
			)
			a := newAssembler(t, newLog(t), src, cfg)
			record(t, a, "u1", crash, core.KindDislike, time.Hour)
			for _, l := range tt.likes {
				record(t, a, "u1", l, core.KindLike, 2*time.Hour)
			}

			f, err := a.ForYouFeed(context.Background(), "u1", 0)
			if err != nil {
				t.Fatal(err)
			}
			if f.Personalized {
				t.Errorf("personalized = true, want false")
			}
			if got, want := ids(f), []string{"vote", "btc"}; !equalIDs(got, want) {
				t.Errorf("order = %v, want %v", got, want)
			}
			btc := f.Items[1]
			if btc.DislikePenalty <= 0 || btc.Similarity != 0 {
				t.Errorf("btc penalty = %v similarity = %v, want penalty > 0 and no similarity", btc.DislikePenalty, btc.Similarity)
			}
			if f.Items[0].DislikePenalty != 0 {
				t.Errorf("unrelated article penalized: %v", f.Items[0].DislikePenalty)
			}
		})
	}
}

func TestForYouFeed_TopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = 2
	a := newAssembler(t, newLog(t), centralBankCandidates(), cfg)
	ctx := context.Background()

	tests := []struct {
		name string
		topK int
		want int
	}{
		{"default", 0, 2},
		{"explicit", 1, 1},
		{"larger than candidates", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := a.ForYouFeed(ctx, "u1", tt.topK)
			if err != nil {
				t.Fatal(err)
			}
			if len(f.Items) != tt.want {
				t.Errorf("len = %d, want %d", len(f.Items), tt.want)
			}
		})
	}

	if _, err := a.ForYouFeed(ctx, "u1", -1); !core.IsInvalidInput(err) {
		t.Errorf("negative topK err = %v, want INVALID_INPUT", err)
	}
	if _, err := a.ForYouFeed(ctx, "", 5); !core.IsInvalidInput(err) {
		t.Errorf("empty user err = %v, want INVALID_INPUT", err)
	}
}

type failingLog struct{ err error }

func (f failingLog) Record(context.Context, core.InteractionEvent) error { return f.err }
func (f failingLog) History(context.Context, string, int) ([]core.InteractionEvent, error) {
	return nil, f.err
}

type failingSource struct{ err error }

func (f failingSource) Candidates(context.Context, []string, int) ([]core.Article, error) {
	return nil, f.err
}

type brokenNode struct{ err error }

func (brokenNode) Name() string        { return "rerank.broken" }
func (brokenNode) Kind() pipeline.Kind { return pipeline.KindReRank }
func (n brokenNode) Process(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
	return nil, n.err
}

func TestForYouFeed_Unavailable(t *testing.T) {
	boom := errors.New("connection refused")
	config.Register("rerank.broken", func(map[string]interface{}) (pipeline.Node, error) {
		return brokenNode{err: boom}, nil
	})
	tests := []struct {
		name  string
		log   core.InteractionLog
		src   core.ArticleSource
		extra []pipeline.NodeConfig
		want  string
	}{
		{"interaction log", failingLog{err: boom}, centralBankCandidates(), nil, "feed: interaction log unavailable"},
		{"article source", newLog(t), failingSource{err: boom}, nil, "feed: article source unavailable"},
		{"extra node", newLog(t), centralBankCandidates(), []pipeline.NodeConfig{{Type: "rerank.broken"}},
			"feed: pipeline node rerank.broken unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ExtraNodes = tt.extra
			a := newAssembler(t, tt.log, tt.src, cfg)
			f, err := a.ForYouFeed(context.Background(), "u1", 0)
			if f != nil {
				t.Errorf("feed must be nil on failure, got %+v", f)
			}
			if !errors.Is(err, core.ErrFeedUnavailable) || !core.IsUnavailable(err) {
				t.Errorf("err = %v, want feed unavailable", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("cause not reachable: %v", err)
			}
			if err != nil && !strings.HasPrefix(err.Error(), tt.want) {
				t.Errorf("err = %q, want prefix %q", err.Error(), tt.want)
			}
		})
	}
}

func TestForYouFeed_EmptyCandidates(t *testing.T) {
	a := newAssembler(t, newLog(t), source.NewStatic(), DefaultConfig())
	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("empty candidate set is not an error: %v", err)
	}
	if f.Items == nil || len(f.Items) != 0 {
		t.Errorf("items = %#v, want empty", f.Items)
	}
}

func TestForYouFeed_FiltersDislikedAndConsumed(t *testing.T) {
	src := centralBankCandidates()
	disliked := art("d", "Central bank rate gossip", "business", time.Hour)
	src.Add(disliked)
	src.Add(art("s", "Sports final tonight", "sports", time.Hour))

	prefs := core.StaticPreferences{
		"u1": {Consumed: []string{"b"}},
		"u2": {Categories: []string{"sports"}},
	}
	a := newAssembler(t, newLog(t), src, DefaultConfig(), WithIdentity(prefs))
	record(t, a, "u1", core.Article{ID: "l1", Title: "central bank interest rate hike"}, core.KindLike, 2*time.Hour)
	record(t, a, "u1", disliked, core.KindDislike, time.Hour)

	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids(f) {
		if id == "d" || id == "b" {
			t.Errorf("%s should be filtered: %v", id, ids(f))
		}
	}

	f2, err := a.ForYouFeed(context.Background(), "u2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(f2); !equalIDs(got, []string{"s"}) {
		t.Errorf("preferred categories: got %v, want [s]", got)
	}
}

func TestForYouFeed_ExtraNodesAndRules(t *testing.T) {
	src := source.NewStatic(
		art("b1", "Bank stocks rise", "business", time.Hour),
		art("b2", "Bank mergers announced", "business", 2*time.Hour),
		art("t1", "Chip makers rally", "technology", 3*time.Hour),
		art("g1", "Celebrity gossip", "general", 4*time.Hour),
	)
	src.Add(core.Article{ID: "tab", Title: "Shock headline", Source: "Tabloid", Category: "general", PublishedAt: now})

	cfg := DefaultConfig()
	cfg.ExcludeExpr = `item.source == "Tabloid"`
	cfg.BlockedCategories = []string{"General"}
	cfg.ExtraNodes = []pipeline.NodeConfig{
		{Type: "rerank.diversity", Config: map[string]interface{}{"max_per_category": 1, "drop": true}},
	}
	a := newAssembler(t, newLog(t), src, cfg)

	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(f), []string{"b1", "t1"}; !equalIDs(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"like not above view", func(c *Config) { c.LikeWeight = 1; c.ViewWeight = 1 }},
		{"view below one", func(c *Config) { c.ViewWeight = 0 }},
		{"positive dislike", func(c *Config) { c.DislikeWeight = 0.5 }},
		{"decay above one", func(c *Config) { c.RecencyDecayRate = 1.5 }},
		{"recency weight too large", func(c *Config) { c.RecencyWeight = 0.8 }},
		{"zero top k", func(c *Config) { c.TopK = 0 }},
		{"negative min likes", func(c *Config) { c.MinLikes = -1 }},
		{"bad expr", func(c *Config) { c.ExcludeExpr = "item.title ==" }},
		{"unknown node", func(c *Config) { c.ExtraNodes = []pipeline.NodeConfig{{Type: "rank.unknown"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(newLog(t), source.NewStatic(), cfg)
			if !core.IsInvalidConfig(err) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := New(nil, source.NewStatic(), DefaultConfig()); !core.IsInvalidConfig(err) {
		t.Errorf("nil log err = %v, want INVALID_CONFIG", err)
	}
}

func TestRecord(t *testing.T) {
	log := newLog(t)
	a := newAssembler(t, log, source.NewStatic(), DefaultConfig())
	ctx := context.Background()

	bad := core.InteractionEvent{UserID: "u1", ArticleID: "a", Kind: "save", Timestamp: now}
	if err := a.Record(ctx, bad); !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}

	record(t, a, "u1", core.Article{ID: "a", Title: "Rates"}, core.KindLike, 0)
	history, err := log.History(ctx, "u1", 10)
	if err != nil || len(history) != 1 || history[0].ArticleText != "Rates" {
		t.Errorf("History = %+v, %v", history, err)
	}

	failing := newAssembler(t, failingLog{err: errors.New("disk full")}, source.NewStatic(), DefaultConfig())
	ev := core.NewInteractionEvent("u1", core.Article{ID: "a"}, core.KindView, now)
	if err := failing.Record(ctx, ev); !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE", err)
	}
}

func TestForYouFeed_Concurrent(t *testing.T) {
	a := newAssembler(t, newLog(t), centralBankCandidates(), DefaultConfig())
	record(t, a, "u1", core.Article{ID: "l1", Title: "central bank interest rate hike"}, core.KindLike, time.Hour)
	record(t, a, "u1", core.Article{ID: "v1", Title: "quarterly earnings report"}, core.KindView, time.Hour)

	want, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := a.ForYouFeed(context.Background(), "u1", 0)
			if err != nil {
				errs <- err
				return
			}
			if !equalIDs(ids(f), ids(want)) {
				errs <- errors.New("concurrent feed differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newAssembler(t, newLog(t), centralBankCandidates(), DefaultConfig(), WithMetrics(reg))

	if _, err := a.ForYouFeed(context.Background(), "u1", 0); err != nil {
		t.Fatal(err)
	}
	_, _ = a.ForYouFeed(context.Background(), "u1", -1)

	if got := testutil.ToFloat64(a.metrics.requests.WithLabelValues(outcomeOK, "false")); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.metrics.requests.WithLabelValues(outcomeInvalid, "false")); got != 1 {
		t.Errorf("invalid requests = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(a.metrics.nodeDuration); n != 4 {
		t.Errorf("node duration series = %d, want 4", n)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foryou.yaml")
	data := []byte(`
like_weight: 5
view_weight: 2
recency_decay_rate: 0.95
default_categories: [science]
extra_nodes:
  - type: rerank.diversity
    config:
      max_per_category: 2
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvTopK, "12")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LikeWeight != 5 || cfg.ViewWeight != 2 || cfg.RecencyDecayRate != 0.95 || cfg.TopK != 12 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.DefaultCategories) != 1 || cfg.DefaultCategories[0] != "science" || len(cfg.ExtraNodes) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.HistoryWindow != DefaultConfig().HistoryWindow {
		t.Errorf("unset fields must keep defaults, history_window = %d", cfg.HistoryWindow)
	}

	t.Setenv(EnvTopK, "many")
	if _, err := LoadConfig(path); !core.IsInvalidConfig(err) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}

	t.Setenv(EnvTopK, "")
	t.Setenv(EnvConfigPath, path)
	if cfg, err := LoadConfig(""); err != nil || cfg.LikeWeight != 5 {
		t.Errorf("LoadConfig via env = %+v, %v", cfg, err)
	}
}

func TestForYouFeed_MultipleSources(t *testing.T) {
	primary := source.NewStatic(
		art("a", "Rates rise", "business", time.Hour),
		art("b", "Chips rally", "technology", 2*time.Hour),
	)
	secondary := source.NewStatic(
		core.Article{ID: "b", Title: "Chips rally (wire copy)", Category: "technology", PublishedAt: now.Add(-2 * time.Hour)},
		art("c", "Weather turns", "general", 3*time.Hour),
	)
	cfg := DefaultConfig()
	cfg.SourceTimeout = time.Second
	a := newAssembler(t, newLog(t), primary, cfg, WithSource("wire", secondary))

	f, err := a.ForYouFeed(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(f), []string{"a", "b", "c"}; !equalIDs(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if f.Candidates != 3 || f.Items[1].Article.Title != "Chips rally" {
		t.Errorf("primary source must win duplicates: %+v", f.Items[1].Article)
	}

	broken := newAssembler(t, newLog(t), primary, cfg, WithSource("down", failingSource{err: errors.New("503")}))
	if _, err := broken.ForYouFeed(context.Background(), "u1", 0); !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE", err)
	}
}
