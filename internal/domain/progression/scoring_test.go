package progression

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
)

func testRules(t *testing.T) cards.Rules {
	t.Helper()
	rules := cards.DefaultRules()
	rules.Catalog = cards.MustCatalog([]cards.Card{
		{ID: "a", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "b", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "c", BaseScore: 20, Rarity: cards.RarityUncommon},
	})
	rules.StarterCards = []string{"a", "b", "c"}
	return rules
}

func TestEvaluateLit_StreakGrowsWithinRarity(t *testing.T) {
	rules := testRules(t)
	now := time.UnixMilli(1_700_000_000_000)
	a, _ := rules.Catalog.Lookup("a")
	b, _ := rules.Catalog.Lookup("b")

	agg := Aggregate{Points: 30}
	first := EvaluateLit(rules, agg, a, nil, now)
	if first.InCooldown || first.EarnedScore != 10 || first.StreakCount != 1 || first.StreakRarity != cards.RarityCommon {
		t.Fatalf("unexpected first outcome: %+v", first)
	}
	first.Apply(&agg, now)

	second := EvaluateLit(rules, agg, b, nil, now)
	if second.StreakCount != 2 || second.EarnedScore != 12 {
		t.Fatalf("expected streak 2 scoring 12, got %+v", second)
	}
	second.Apply(&agg, now)

	if agg.Points != 52 || agg.TotalLitCount != 2 {
		t.Errorf("unexpected aggregate after two lits: %+v", agg)
	}
}

func TestEvaluateLit_RarityChangeResetsStreak(t *testing.T) {
	rules := testRules(t)
	now := time.UnixMilli(1_700_000_000_000)
	c, _ := rules.Catalog.Lookup("c")

	agg := Aggregate{Points: 30, StreakRarity: cards.RarityCommon, StreakCount: 4}
	out := EvaluateLit(rules, agg, c, nil, now)
	if out.StreakCount != 1 || out.StreakRarity != cards.RarityUncommon || out.EarnedScore != 20 {
		t.Errorf("expected reset to uncommon x1, got %+v", out)
	}
}

func TestEvaluateLit_Cooldown(t *testing.T) {
	rules := testRules(t)
	now := time.UnixMilli(1_700_000_000_000)
	a, _ := rules.Catalog.Lookup("a")

	agg := Aggregate{Points: 40, TotalLitCount: 1, StreakRarity: cards.RarityCommon, StreakCount: 1}
	recent := &LitEvent{CardID: "a", Timestamp: now.Add(-4 * time.Minute).UnixMilli()}

	out := EvaluateLit(rules, agg, a, recent, now)
	if !out.InCooldown || out.EarnedScore != 0 {
		t.Fatalf("expected cooldown with zero score, got %+v", out)
	}
	out.Apply(&agg, now)
	if agg.Points != 40 || agg.TotalLitCount != 1 || agg.StreakCount != 1 || agg.StreakRarity != cards.RarityCommon {
		t.Errorf("cooldown must not change aggregate, got %+v", agg)
	}

	expired := &LitEvent{CardID: "a", Timestamp: now.Add(-5 * time.Minute).UnixMilli()}
	if InCooldown(rules, expired, now) {
		t.Error("an entry exactly one window old must not be in cooldown")
	}
}

func TestStatus_Advance(t *testing.T) {
	if got := StatusLit.Advance(StatusUnlocked); got != StatusLit {
		t.Errorf("lit must not downgrade, got %s", got)
	}
	if got := StatusLocked.Advance(StatusUnlocked); got != StatusUnlocked {
		t.Errorf("locked should advance to unlocked, got %s", got)
	}
	if got := ParseStatus("bogus"); got != StatusLocked {
		t.Errorf("unknown status should parse as locked, got %s", got)
	}
}

func TestReasonCode(t *testing.T) {
	wrapped := fmt.Errorf("unlock cirrus: %w", ErrInsufficientPoints)
	if got := ReasonCode(wrapped); got != "INSUFFICIENT_POINTS" {
		t.Errorf("ReasonCode = %s", got)
	}
	if !errors.Is(wrapped, ErrInsufficientPoints) {
		t.Error("errors.Is should see through wrapping")
	}
	if got := ReasonCode(errors.New("boom")); got != "INTERNAL" {
		t.Errorf("ReasonCode(plain) = %s", got)
	}
	if !IsRetryable(fmt.Errorf("x: %w", ErrClassificationTimeout)) || IsRetryable(ErrInvalidCard) {
		t.Error("retryable classification is wrong")
	}
}
