package rank

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/profile"
	"github.com/rushteam/foryou/vector"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func article(id, title string, age time.Duration) core.Article {
	return core.Article{ID: id, Title: title, PublishedAt: now.Add(-age)}
}

func like(id, text string) core.InteractionEvent {
	return core.InteractionEvent{UserID: "u1", ArticleID: id, Kind: core.KindLike, ArticleText: text, Timestamp: now.Add(-time.Hour)}
}

func view(id, text string) core.InteractionEvent {
	return core.InteractionEvent{UserID: "u1", ArticleID: id, Kind: core.KindView, ArticleText: text, Timestamp: now.Add(-2 * time.Hour)}
}

func dislike(id, text string) core.InteractionEvent {
	return core.InteractionEvent{UserID: "u1", ArticleID: id, Kind: core.KindDislike, ArticleText: text, Timestamp: now.Add(-3 * time.Hour)}
}

func runNode(t *testing.T, r *Ranker, b *profile.Builder, events []core.InteractionEvent, arts []core.Article) []*core.Item {
	t.Helper()
	items := make([]*core.Item, len(arts))
	for i, a := range arts {
		items[i] = core.NewItem(a)
	}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Profile: b.Build("u1", events),
		Now:     now,
	}
	out, err := (&SimilarityNode{Ranker: r}).Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func indexOf(items []*core.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func TestCentralBankScenario(t *testing.T) {
	events := []core.InteractionEvent{
		like("l1", "central bank interest rate hike"),
		view("v1", "quarterly earnings report"),
	}
	arts := []core.Article{
		article("a", "Federal Reserve raises rates", time.Hour),
		article("b", "Tech company earnings beat forecast", time.Hour),
		article("c", "Local weather report", time.Hour),
	}
	out := runNode(t, NewRanker(), profile.NewBuilder(), events, arts)
	got := ids(out)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if out[2].Features[core.FeatureSimilarity] != 0 {
		t.Errorf("weather similarity = %v, want 0", out[2].Features[core.FeatureSimilarity])
	}
}

func TestCentralBankScenario_WithDescriptions(t *testing.T) {
	events := []core.InteractionEvent{
		like("l1", core.ArticleText("Central bank announces interest rate hike", "Policy makers lifted the benchmark rate to fight inflation")),
		view("v1", core.ArticleText("Quarterly earnings report", "Retailers posted mixed quarterly earnings")),
	}
	arts := []core.Article{
		{ID: "a", Title: "Federal Reserve raises rates", Description: "The central bank lifted its benchmark interest rate again", PublishedAt: now},
		{ID: "b", Title: "Tech company earnings beat forecast", Description: "Quarterly revenue grew on cloud demand", PublishedAt: now},
		{ID: "c", Title: "Local weather report", Description: "Sunny skies expected through the weekend", PublishedAt: now},
	}
	out := runNode(t, NewRanker(), profile.NewBuilder(), events, arts)
	if got := ids(out); got[0] != "a" || got[2] != "c" {
		t.Fatalf("order = %v, want a first and c last", got)
	}
}

func TestEmptyHistoryFallsBackToRecency(t *testing.T) {
	arts := []core.Article{
		article("old", "Markets rally", 48*time.Hour),
		article("new", "Weather turns", time.Hour),
		article("mid", "Election results", 10*time.Hour),
		article("nodate", "Unknown timing", 0),
	}
	arts[3].PublishedAt = time.Time{}
	for _, r := range []*Ranker{NewRanker(), {RecencyDecayRate: 1}} {
		out := runNode(t, r, profile.NewBuilder(), nil, arts)
		got := ids(out)
		want := []string{"new", "mid", "old", "nodate"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
		for _, it := range out {
			if it.Features[core.FeatureSimilarity] != 0 {
				t.Errorf("%s similarity = %v, want 0", it.ID, it.Features[core.FeatureSimilarity])
			}
		}
	}
}

func TestRecencyMonotonic(t *testing.T) {
	events := []core.InteractionEvent{like("l1", "Central bank rates")}
	arts := []core.Article{
		article("older", "Central bank holds rates", 30*time.Hour),
		article("newer", "Central bank holds rates", 2*time.Hour),
		article("future", "Central bank holds rates", -5*time.Hour),
	}
	out := runNode(t, NewRanker(), profile.NewBuilder(), events, arts)
	if indexOf(out, "newer") > indexOf(out, "older") {
		t.Errorf("newer ranked below older: %v", ids(out))
	}
	if indexOf(out, "future") > indexOf(out, "newer") {
		t.Errorf("future-dated ranked below newer: %v", ids(out))
	}
	r := NewRanker()
	if r.Recency(now, now.Add(5*time.Hour)) != r.RecencyWeight {
		t.Errorf("negative age must clamp to 0")
	}
}

func TestScoresFinite(t *testing.T) {
	r := &Ranker{RecencyDecayRate: 0.5, RecencyWeight: 0.5, DislikeWeight: -1}
	cands := []Candidate{
		{Article: core.Article{ID: "empty"}},
		{Article: article("ancient", "x", 100000*time.Hour), Vector: vector.NewVector(map[string]float64{"rate": 1})},
		{Article: article("nan", "y", time.Hour), Vector: vector.Vector{{Word: "rate", Weight: math.NaN()}}},
	}
	profileVec := vector.NewVector(map[string]float64{"rate": 1})
	out := r.Rank(now, profileVec, profileVec, cands, 0)
	if len(out) != len(cands) {
		t.Fatalf("got %d results", len(out))
	}
	for _, rc := range out {
		for _, v := range []float64{rc.Score, rc.Similarity, rc.Recency, rc.DislikePenalty} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s has non-finite component: %+v", rc.Article.ID, rc)
			}
		}
	}
}

func TestDislikePenalty(t *testing.T) {
	events := []core.InteractionEvent{
		like("l1", "Central bank rates"),
		dislike("d1", "Celebrity gossip"),
	}
	arts := []core.Article{
		article("a", "Rates celebrity", time.Hour),
		article("b", "Rates market", time.Hour),
	}

	noPenalty := &Ranker{RecencyDecayRate: 1, DislikeWeight: 0}
	out := runNode(t, noPenalty, profile.NewBuilder(), events, arts)
	if got := ids(out); got[0] != "a" {
		t.Fatalf("without penalty expected id tie-break, got %v", got)
	}

	withPenalty := &Ranker{RecencyDecayRate: 1, DislikeWeight: -0.5}
	out = runNode(t, withPenalty, profile.NewBuilder(), events, arts)
	if got := ids(out); got[0] != "b" {
		t.Fatalf("with penalty expected b first, got %v", got)
	}
	if p := out[1].Features[core.FeatureDislikePenalty]; p <= 0 {
		t.Errorf("penalty = %v, want > 0", p)
	}
}

func TestWeightOrdering(t *testing.T) {
	events := []core.InteractionEvent{
		like("l1", "central bank interest rate hike"),
		view("v1", "quarterly earnings report"),
		view("v2", "tech startup funding round"),
	}
	arts := []core.Article{
		article("a", "Federal Reserve raises rates", 3*time.Hour),
		article("b", "Tech company earnings beat forecast", time.Hour),
		article("c", "Startup funding slows", 2*time.Hour),
		article("d", "Local weather report", 0),
	}
	prev := len(arts)
	for w := 2; w <= 8; w++ {
		b := &profile.Builder{LikeWeight: w, ViewWeight: 1}
		out := runNode(t, NewRanker(), b, events, arts)
		pos := indexOf(out, "a")
		if pos > prev {
			t.Fatalf("like_weight=%d: rank of a dropped from %d to %d", w, prev, pos)
		}
		prev = pos
	}
}

func TestMinSimilarityFloor(t *testing.T) {
	r := &Ranker{RecencyDecayRate: 1, MinSimilarity: 0.1, MinResults: 2}
	events := []core.InteractionEvent{like("l1", "Central bank rates")}
	arts := []core.Article{
		article("a", "Central bank rates", 5*time.Hour),
		article("b", "Weather", 3*time.Hour),
		article("c", "Football", time.Hour),
	}
	out := runNode(t, r, profile.NewBuilder(), events, arts)
	got := ids(out)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("order = %v, want [a c]", got)
	}
	if rc := out[1].Ranked(); !rc.Fallback {
		t.Errorf("padded entry should be marked fallback")
	}
	if rc := out[0].Ranked(); rc.Fallback {
		t.Errorf("matched entry should not be marked fallback")
	}

	// 画像为空时不启用下限
	out = runNode(t, r, profile.NewBuilder(), nil, arts)
	if len(out) != 3 {
		t.Errorf("empty profile should keep all candidates, got %v", ids(out))
	}
}

func TestRankTopK(t *testing.T) {
	cands := []Candidate{
		{Article: article("a", "", time.Hour)},
		{Article: article("b", "", 2*time.Hour)},
		{Article: article("c", "", 3*time.Hour)},
	}
	r := NewRanker()
	if got := r.Rank(now, nil, nil, cands, 2); len(got) != 2 || got[0].Article.ID != "a" {
		t.Errorf("Rank topK=2 = %+v", got)
	}
	if got := r.Rank(now, nil, nil, cands, 0); len(got) != 3 {
		t.Errorf("Rank topK=0 should not truncate, got %d", len(got))
	}
}

func TestRanker_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Ranker
		wantErr bool
	}{
		{"default", *NewRanker(), false},
		{"decay zero", Ranker{RecencyDecayRate: 0}, true},
		{"decay above one", Ranker{RecencyDecayRate: 1.5}, true},
		{"recency too large", Ranker{RecencyDecayRate: 0.9, RecencyWeight: 0.6}, true},
		{"positive dislike", Ranker{RecencyDecayRate: 0.9, DislikeWeight: 0.1}, true},
		{"nan floor", Ranker{RecencyDecayRate: 0.9, MinSimilarity: math.NaN()}, true},
		{"negative min results", Ranker{RecencyDecayRate: 0.9, MinResults: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsInvalidConfig(err) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}
