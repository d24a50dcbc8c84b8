package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDomainError_Wrapped(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("for you feed: %w",
		WrapDomainError(ModuleFeed, ErrorCodeUnavailable, "feed: unavailable", cause))

	if !IsUnavailable(err) {
		t.Fatalf("IsUnavailable(%v) = false, want true", err)
	}
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Errorf("errors.Is(err, ErrFeedUnavailable) = false")
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not reachable through Unwrap")
	}
	if IsInvalidConfig(err) || IsNotFound(err) {
		t.Errorf("unexpected code match for %v", err)
	}
}

func TestIsStoreNotFound(t *testing.T) {
	if !IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)) {
		t.Error("wrapped ErrStoreNotFound not detected")
	}
	if IsStoreNotFound(errors.New("boom")) {
		t.Error("plain error detected as not found")
	}
	if IsStoreNotFound(nil) {
		t.Error("nil detected as not found")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		action  string
		want    Kind
		wantErr bool
	}{
		{"like", KindLike, false},
		{"Dislike", KindDislike, false},
		{"unlike", KindDislike, false},
		{" view ", KindView, false},
		{"save", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, err := ParseKind(tt.action)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) err = %v, wantErr %v", tt.action, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.action, got, tt.want)
			}
			if tt.wantErr && !IsInvalidInput(err) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestInteractionEvent_Validate(t *testing.T) {
	now := time.Now()
	a := Article{ID: "a1", Title: "Rates", Description: "Central bank"}
	ok := NewInteractionEvent("u1", a, KindLike, now)
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	if ok.ArticleText != "Rates Central bank" {
		t.Errorf("ArticleText = %q", ok.ArticleText)
	}

	bad := ok
	bad.Kind = "save"
	if err := bad.Validate(); !IsInvalidInput(err) {
		t.Errorf("invalid kind: err = %v", err)
	}
	bad = ok
	bad.UserID = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty user id accepted")
	}
	bad = ok
	bad.Timestamp = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Error("zero timestamp accepted")
	}
}

func TestRecommendContext_ConsumedIDs(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rctx := &RecommendContext{
		Preferences: &Preferences{Consumed: []string{"x"}, SessionStart: start},
		History: []InteractionEvent{
			{ArticleID: "v-new", Kind: KindView, Timestamp: start.Add(time.Minute)},
			{ArticleID: "v-old", Kind: KindView, Timestamp: start.Add(-time.Hour)},
			{ArticleID: "l-new", Kind: KindLike, Timestamp: start.Add(time.Minute)},
		},
	}
	got := rctx.ConsumedIDs()
	for _, id := range []string{"x", "v-new"} {
		if !got[id] {
			t.Errorf("%s not consumed", id)
		}
	}
	for _, id := range []string{"v-old", "l-new"} {
		if got[id] {
			t.Errorf("%s unexpectedly consumed", id)
		}
	}
}
