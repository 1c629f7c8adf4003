package progression

import (
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
)

// LitOutcome is the scoring decision for one lit submission.
type LitOutcome struct {
	EarnedScore  int
	InCooldown   bool
	StreakRarity cards.Rarity
	StreakCount  int
	Multiplier   float64
}

// InCooldown reports whether a submission at now falls inside the cooldown
// window of the card's previous ledger entry.
func InCooldown(rules cards.Rules, last *LitEvent, now time.Time) bool {
	if last == nil {
		return false
	}
	return now.UnixMilli()-last.Timestamp < rules.CooldownWindow.Milliseconds()
}

// EvaluateLit computes score and streak for lighting card given the user's
// current aggregate and the card's most recent ledger entry.
func EvaluateLit(rules cards.Rules, agg Aggregate, card cards.Card, last *LitEvent, now time.Time) LitOutcome {
	if InCooldown(rules, last, now) {
		return LitOutcome{
			InCooldown:   true,
			StreakRarity: agg.StreakRarity,
			StreakCount:  agg.StreakCount,
		}
	}

	streak := 1
	if agg.StreakRarity == card.Rarity {
		streak = agg.StreakCount + 1
	}
	return LitOutcome{
		EarnedScore:  rules.Score(card.BaseScore, streak),
		StreakRarity: card.Rarity,
		StreakCount:  streak,
		Multiplier:   rules.Multiplier(streak),
	}
}

// Apply folds an outcome into the aggregate.
func (o LitOutcome) Apply(agg *Aggregate, now time.Time) {
	agg.Points += o.EarnedScore
	agg.StreakRarity = o.StreakRarity
	agg.StreakCount = o.StreakCount
	if !o.InCooldown {
		agg.TotalLitCount++
	}
	agg.UpdatedAt = now
}
