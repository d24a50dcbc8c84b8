package dsl

import (
	"testing"
	"time"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pkg/utils"
)

func TestProgram_Match(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	it := core.NewItem(core.Article{
		ID:          "a1",
		Title:       "Sponsored: buy now",
		Category:    "business",
		Source:      "tabloid",
		PublishedAt: now.Add(-100 * time.Hour),
	})
	it.PutLabel("recall_source", utils.NewLabel("newsapi", "recall"))
	rctx := &core.RecommendContext{UserID: "u1", Categories: []string{"business"}, Now: now}

	tests := []struct {
		expr string
		want bool
	}{
		{`item.category == "business"`, true},
		{`item.source == "reuters"`, false},
		{`item.title.matches("(?i)sponsored")`, true},
		{`item.age_hours > 72.0`, true},
		{`label.recall_source == "newsapi"`, true},
		{`item.category in rctx.categories`, true},
		{`rctx.user_id == "u2"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got, err := p.Match(it, rctx)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{`item.category ==`, `1 + 2`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) expected error", expr)
		}
	}
}

func TestEvaluate_Empty(t *testing.T) {
	ok, err := Evaluate("", nil, nil)
	if err != nil || !ok {
		t.Fatalf("Evaluate(\"\") = %v, %v", ok, err)
	}
}
