// Package progression defines the per-user collection state: the aggregate
// points/streak record, per-card progress, the lit-event ledger, and the
// transactional store contract the engines run against.
package progression

import (
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
)

// Status is a card's collection state. It only ever moves forward.
type Status string

const (
	StatusLocked   Status = "locked"
	StatusUnlocked Status = "unlocked"
	StatusLit      Status = "lit"
)

// Rank orders statuses locked < unlocked < lit. Unknown statuses rank as locked.
func (s Status) Rank() int {
	switch s {
	case StatusUnlocked:
		return 1
	case StatusLit:
		return 2
	default:
		return 0
	}
}

// ParseStatus maps a stored or client-supplied status onto the enum.
// Anything unrecognised is treated as locked.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusUnlocked, StatusLit:
		return Status(s)
	default:
		return StatusLocked
	}
}

// Advance returns the higher of the current and target status.
func (s Status) Advance(target Status) Status {
	if target.Rank() > s.Rank() {
		return target
	}
	return s
}

// Aggregate is the per-user points and streak record.
type Aggregate struct {
	UserID        string       `json:"userId"`
	Points        int          `json:"points"`
	TotalLitCount int          `json:"totalLitCount"`
	StreakRarity  cards.Rarity `json:"streakRarity,omitempty"`
	StreakCount   int          `json:"streakCount"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// CardProgress is one user's progress on one card.
type CardProgress struct {
	UserID     string     `json:"userId"`
	CardID     string     `json:"cardId"`
	Status     Status     `json:"status"`
	LitCount   int        `json:"litCount"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// Analysis carries the taxonomy fields echoed from the classifier. All
// fields are optional.
type Analysis struct {
	Family    string `json:"family"`
	Genus     string `json:"genus"`
	Species   string `json:"species"`
	Features  string `json:"features"`
	Weather   string `json:"weather"`
	Knowledge string `json:"knowledge"`
}

// LitEvent is an immutable ledger entry for one classification submission.
type LitEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CardID      string    `json:"cardId"`
	Timestamp   int64     `json:"timestamp"` // milliseconds since epoch
	EarnedScore int       `json:"earnedScore"`
	Analysis    Analysis  `json:"aiAnalysis"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Time returns the event timestamp as a time.Time.
func (e LitEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Seed describes the defaults granted to a user on first touch.
type Seed struct {
	InitialPoints int
	StarterCards  []string
	Now           time.Time
}

// SeedFromRules builds the first-touch defaults from the game rules.
func SeedFromRules(rules cards.Rules, now time.Time) Seed {
	return Seed{
		InitialPoints: rules.InitialPoints,
		StarterCards:  rules.StarterCards,
		Now:           now,
	}
}
