package cards

import (
	"fmt"
	"math"
	"time"
)

// Rules bundles every game constant the progression engines consult. A Rules
// value is built once and shared read-only; tests construct their own.
type Rules struct {
	Catalog        *Catalog
	UnlockCosts    map[Rarity]int
	StarterCards   []string
	InitialPoints  int
	CooldownWindow time.Duration
	StreakStep     float64
	StreakCap      float64
	MaxStars       int
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	if r.Catalog == nil {
		return fmt.Errorf("rules: catalog is required")
	}
	if r.InitialPoints < 0 {
		return fmt.Errorf("rules: initial points must be non-negative")
	}
	if r.CooldownWindow < 0 {
		return fmt.Errorf("rules: cooldown window must be non-negative")
	}
	if r.StreakCap < 1 {
		return fmt.Errorf("rules: streak cap must be at least 1")
	}
	for _, id := range r.StarterCards {
		if !r.Catalog.Contains(id) {
			return fmt.Errorf("rules: starter card %q is not in the catalog", id)
		}
	}
	for _, card := range r.Catalog.Cards() {
		if _, ok := r.UnlockCosts[card.Rarity]; !ok {
			return fmt.Errorf("rules: no unlock cost for rarity %q (card %q)", card.Rarity, card.ID)
		}
	}
	return nil
}

// UnlockCost returns the price of unlocking a card of the given rarity.
func (r Rules) UnlockCost(rarity Rarity) (int, bool) {
	cost, ok := r.UnlockCosts[rarity]
	return cost, ok
}

// Multiplier returns the score multiplier for a streak of length n:
// 1 + (n-1)*step, capped. Lengths below one are treated as one.
func (r Rules) Multiplier(n int) float64 {
	if n < 1 {
		n = 1
	}
	return math.Min(1+float64(n-1)*r.StreakStep, r.StreakCap)
}

// Score returns round(base * Multiplier(n)).
func (r Rules) Score(base, n int) int {
	return int(math.Round(float64(base) * r.Multiplier(n)))
}

// Stars maps a personal lit count onto the client's star levels.
func (r Rules) Stars(litCount int) int {
	if litCount < 0 {
		return 0
	}
	if litCount > r.MaxStars {
		return r.MaxStars
	}
	return litCount
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		Catalog: MustCatalog(defaultCards),
		UnlockCosts: map[Rarity]int{
			RarityCommon:    10,
			RarityFrequent:  20,
			RarityUncommon:  40,
			RarityRare:      80,
			RarityLegendary: 150,
			RarityMythic:    300,
		},
		StarterCards:   []string{"cirrus", "cumulus", "stratus"},
		InitialPoints:  30,
		CooldownWindow: 5 * time.Minute,
		StreakStep:     0.2,
		StreakCap:      2.0,
		MaxStars:       5,
	}
}
