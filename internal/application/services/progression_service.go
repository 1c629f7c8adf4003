// Package services provides application-level services that orchestrate
// the progression rules against the per-user store.
package services

import (
	"context"
	"sort"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
)

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// LitResult is returned to the client after a lit submission.
type LitResult struct {
	EarnedScore  int          `json:"earnedScore"`
	NewPoints    int          `json:"newPoints"`
	StreakCount  int          `json:"streakCount"`
	StreakRarity cards.Rarity `json:"streakRarity"`
	InCooldown   bool         `json:"inCooldown"`
	Multiplier   float64      `json:"multiplier"`
	LitCount     int          `json:"litCount"`
}

// UnlockResult is returned after an unlock request.
type UnlockResult struct {
	Success    bool `json:"success"`
	NewPoints  int  `json:"newPoints"`
	AlreadyLit bool `json:"alreadyLit"`
}

// LitRecordView is one ledger entry as shown in the state snapshot.
type LitRecordView struct {
	Timestamp   int64                `json:"timestamp"`
	EarnedScore int                  `json:"earnedScore"`
	AIAnalysis  progression.Analysis `json:"aiAnalysis"`
}

// CardState is one card's entry in the state snapshot.
type CardState struct {
	CardID     string             `json:"cardId"`
	Status     progression.Status `json:"status"`
	LitCount   int                `json:"litCount"`
	Stars      int                `json:"stars"`
	UnlockedAt *int64             `json:"unlockedAt"`
	LitRecords []LitRecordView    `json:"litRecords"`
}

// StateSnapshot is the full progression state of one user.
type StateSnapshot struct {
	Points        int                   `json:"points"`
	TotalLitCount int                   `json:"totalLitCount"`
	StreakRarity  *string               `json:"streakRarity"`
	StreakCount   int                   `json:"streakCount"`
	Cards         map[string]*CardState `json:"cards"`
}

// CatalogEntry describes one card for the catalog listing.
type CatalogEntry struct {
	ID         string       `json:"id"`
	BaseScore  int          `json:"baseScore"`
	Rarity     cards.Rarity `json:"rarity"`
	Label      string       `json:"label"`
	UnlockCost int          `json:"unlockCost"`
	Starter    bool         `json:"starter"`
}

// ProgressionService runs lit evaluation, unlocks and snapshots.
type ProgressionService struct {
	store       progression.Store
	rules       cards.Rules
	clock       Clock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewProgressionService creates a new progression application service
func NewProgressionService(store progression.Store, rules cards.Rules, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProgressionService {
	return &ProgressionService{
		store:       store,
		rules:       rules,
		clock:       systemClock,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// WithClock replaces the time source.
func (s *ProgressionService) WithClock(clock Clock) *ProgressionService {
	s.clock = clock
	return s
}

// Lit scores one successful classification of cardID for userID. A
// submission inside the card's cooldown window still lights the card and is
// still recorded, but earns nothing and leaves the streak untouched.
func (s *ProgressionService) Lit(ctx context.Context, userID, cardID string, analysis progression.Analysis) (*LitResult, error) {
	marker := s.perfTracker.StartOperation("progression:lit", userID)
	defer marker.Complete()

	card, ok := s.rules.Catalog.Lookup(cardID)
	if !ok {
		s.logger.Progression().Warn("Lit rejected for unknown card", "userId", userID, "cardId", cardID)
		marker.SetError(progression.ErrInvalidCard)
		return nil, progression.ErrInvalidCard
	}

	now := s.clock()
	var result *LitResult

	err := s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, now))
		if err != nil {
			return err
		}
		last, err := tx.LastLitEvent(card.ID)
		if err != nil {
			return err
		}

		outcome := progression.EvaluateLit(s.rules, *agg, card, last, now)
		outcome.Apply(agg, now)

		cardProgress, err := tx.GetOrInitCardProgress(card.ID)
		if err != nil {
			return err
		}
		cardProgress.LitCount++
		cardProgress.Status = cardProgress.Status.Advance(progression.StatusLit)

		event := &progression.LitEvent{
			CardID:      card.ID,
			Timestamp:   now.UnixMilli(),
			EarnedScore: outcome.EarnedScore,
			Analysis:    analysis,
			CreatedAt:   now,
		}
		if err := tx.AppendLitEvent(event); err != nil {
			return err
		}
		if err := tx.SaveCardProgress(cardProgress); err != nil {
			return err
		}
		if err := tx.SaveAggregate(agg); err != nil {
			return err
		}

		result = &LitResult{
			EarnedScore:  outcome.EarnedScore,
			NewPoints:    agg.Points,
			StreakCount:  agg.StreakCount,
			StreakRarity: agg.StreakRarity,
			InCooldown:   outcome.InCooldown,
			Multiplier:   outcome.Multiplier,
			LitCount:     cardProgress.LitCount,
		}
		return nil
	})
	if err != nil {
		s.logger.Progression().Error("Lit failed", "userId", userID, "cardId", cardID, "error", err.Error())
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	marker.AddMetadata("inCooldown", result.InCooldown)
	s.logger.Progression().Info("Card lit",
		"userId", userID,
		"cardId", cardID,
		"earnedScore", result.EarnedScore,
		"newPoints", result.NewPoints,
		"streakRarity", result.StreakRarity,
		"streakCount", result.StreakCount,
		"inCooldown", result.InCooldown)
	s.logger.Perf().Debug("Performance for Lit", "duration", time.Since(marker.StartTime), "userId", userID, "success", true)
	return result, nil
}

// Unlock spends points to move cardID from locked to unlocked. Cards that
// are already lit are reported as unlocked without spending anything.
func (s *ProgressionService) Unlock(ctx context.Context, userID, cardID string) (*UnlockResult, error) {
	marker := s.perfTracker.StartOperation("progression:unlock", userID)
	defer marker.Complete()

	card, ok := s.rules.Catalog.Lookup(cardID)
	if !ok {
		s.logger.Progression().Warn("Unlock rejected for unknown card", "userId", userID, "cardId", cardID)
		marker.SetError(progression.ErrInvalidCard)
		return nil, progression.ErrInvalidCard
	}
	cost, priced := s.rules.UnlockCost(card.Rarity)

	now := s.clock()
	var result *UnlockResult

	err := s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, now))
		if err != nil {
			return err
		}
		cardProgress, err := tx.GetOrInitCardProgress(card.ID)
		if err != nil {
			return err
		}

		if cardProgress.Status == progression.StatusLit {
			result = &UnlockResult{Success: true, NewPoints: agg.Points, AlreadyLit: true}
			return nil
		}
		// An unpriced tier can never be afforded.
		if !priced || agg.Points < cost {
			return progression.ErrInsufficientPoints
		}

		agg.Points -= cost
		agg.UpdatedAt = now
		cardProgress.Status = cardProgress.Status.Advance(progression.StatusUnlocked)
		unlockedAt := now
		cardProgress.UnlockedAt = &unlockedAt

		if err := tx.SaveCardProgress(cardProgress); err != nil {
			return err
		}
		if err := tx.SaveAggregate(agg); err != nil {
			return err
		}
		result = &UnlockResult{Success: true, NewPoints: agg.Points}
		return nil
	})
	if err != nil {
		if err == progression.ErrInsufficientPoints {
			s.logger.Progression().Info("Unlock rejected, insufficient points", "userId", userID, "cardId", cardID, "cost", cost, "priced", priced)
		} else {
			s.logger.Progression().Error("Unlock failed", "userId", userID, "cardId", cardID, "error", err.Error())
		}
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	s.logger.Progression().Info("Card unlocked", "userId", userID, "cardId", cardID, "cost", cost, "newPoints", result.NewPoints, "alreadyLit", result.AlreadyLit)
	return result, nil
}

// Snapshot returns the user's aggregate and every card record with its
// ledger entries embedded, initializing the user on first access.
func (s *ProgressionService) Snapshot(ctx context.Context, userID string) (*StateSnapshot, error) {
	marker := s.perfTracker.StartOperation("progression:snapshot", userID)
	defer marker.Complete()

	now := s.clock()
	var snapshot *StateSnapshot

	err := s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, now))
		if err != nil {
			return err
		}
		progressByCard, err := tx.ListCardProgress()
		if err != nil {
			return err
		}
		ledger, err := tx.ListLedger()
		if err != nil {
			return err
		}
		snapshot = s.buildSnapshot(agg, progressByCard, ledger)
		return nil
	})
	if err != nil {
		s.logger.Progression().Error("Snapshot failed", "userId", userID, "error", err.Error())
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	s.logger.Progression().Debug("Snapshot served", "userId", userID, "cards", len(snapshot.Cards), "points", snapshot.Points)
	return snapshot, nil
}

func (s *ProgressionService) buildSnapshot(agg *progression.Aggregate, progressByCard map[string]*progression.CardProgress, ledger []progression.LitEvent) *StateSnapshot {
	snapshot := &StateSnapshot{
		Points:        agg.Points,
		TotalLitCount: agg.TotalLitCount,
		StreakCount:   agg.StreakCount,
		Cards:         make(map[string]*CardState, len(progressByCard)),
	}
	if agg.StreakRarity != "" {
		rarity := string(agg.StreakRarity)
		snapshot.StreakRarity = &rarity
	}

	for id, p := range progressByCard {
		state := &CardState{
			CardID:     id,
			Status:     p.Status,
			LitCount:   p.LitCount,
			Stars:      s.rules.Stars(p.LitCount),
			LitRecords: []LitRecordView{},
		}
		if p.UnlockedAt != nil {
			ms := p.UnlockedAt.UnixMilli()
			state.UnlockedAt = &ms
		}
		snapshot.Cards[id] = state
	}

	// Ledger is already ordered by timestamp; entries for cards without a
	// progress record still surface rather than being dropped.
	for _, event := range ledger {
		state, ok := snapshot.Cards[event.CardID]
		if !ok {
			state = &CardState{CardID: event.CardID, Status: progression.StatusLocked, LitRecords: []LitRecordView{}}
			snapshot.Cards[event.CardID] = state
		}
		state.LitRecords = append(state.LitRecords, LitRecordView{
			Timestamp:   event.Timestamp,
			EarnedScore: event.EarnedScore,
			AIAnalysis:  event.Analysis,
		})
	}
	return snapshot
}

// Catalog lists every card with its unlock price in declaration order.
func (s *ProgressionService) Catalog() []CatalogEntry {
	starters := make(map[string]bool, len(s.rules.StarterCards))
	for _, id := range s.rules.StarterCards {
		starters[id] = true
	}

	all := s.rules.Catalog.Cards()
	entries := make([]CatalogEntry, 0, len(all))
	for _, card := range all {
		cost, _ := s.rules.UnlockCost(card.Rarity)
		entries = append(entries, CatalogEntry{
			ID:         card.ID,
			BaseScore:  card.BaseScore,
			Rarity:     card.Rarity,
			Label:      card.Rarity.Label(),
			UnlockCost: cost,
			Starter:    starters[card.ID],
		})
	}
	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
