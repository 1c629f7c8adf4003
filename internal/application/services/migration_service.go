package services

import (
	"context"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
)

// Migration skip reasons.
const (
	SkipReasonServerActivity = "SERVER_HAS_ACTIVITY"
)

// MigrationSnapshot is the locally held client state submitted for import.
type MigrationSnapshot struct {
	Points        int                      `json:"points"`
	TotalLitCount int                      `json:"total_lit_count"`
	StreakRarity  *string                  `json:"streak_rarity"`
	StreakCount   int                      `json:"streak_count"`
	Cards         map[string]MigrationCard `json:"cards"`
}

// MigrationCard is one card of a migration snapshot.
type MigrationCard struct {
	Status     string               `json:"status"`
	LitCount   int                  `json:"litCount"`
	UnlockedAt *int64               `json:"unlockedAt"`
	LitRecords []MigrationLitRecord `json:"litRecords"`
}

// MigrationLitRecord is one historical ledger entry of a migration card.
type MigrationLitRecord struct {
	Timestamp   *int64                `json:"timestamp"`
	EarnedScore int                   `json:"earnedScore"`
	AIAnalysis  *progression.Analysis `json:"aiAnalysis"`
}

// MigrationResult reports whether the snapshot was applied.
type MigrationResult struct {
	Migrated     bool   `json:"migrated"`
	Message      string `json:"message"`
	Reason       string `json:"reason,omitempty"`
	CardsApplied int    `json:"cardsApplied"`
	LitRecords   int    `json:"litRecords"`
	UnknownCards int    `json:"unknownCards"`
}

// MigrationService imports client-held state into a user with no server
// activity.
type MigrationService struct {
	store       progression.Store
	rules       cards.Rules
	clock       Clock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewMigrationService creates a new migration application service
func NewMigrationService(store progression.Store, rules cards.Rules, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MigrationService {
	return &MigrationService{
		store:       store,
		rules:       rules,
		clock:       systemClock,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// WithClock replaces the time source.
func (s *MigrationService) WithClock(clock Clock) *MigrationService {
	s.clock = clock
	return s
}

// Migrate overwrites the user's state with snapshot, but only while the user
// has no lit activity on the server. Otherwise it reports the import as
// skipped and changes nothing. Card ids outside the catalog are stored as-is.
func (s *MigrationService) Migrate(ctx context.Context, userID string, snapshot MigrationSnapshot) (*MigrationResult, error) {
	marker := s.perfTracker.StartOperation("progression:migrate", userID)
	defer marker.Complete()

	now := s.clock()
	result := &MigrationResult{}

	err := s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, now))
		if err != nil {
			return err
		}

		// A previous import with a zero lit counter still leaves ledger rows.
		active := agg.TotalLitCount != 0
		if !active {
			if active, err = s.hasLedger(tx); err != nil {
				return err
			}
		}
		if active {
			result.Reason = SkipReasonServerActivity
			result.Message = "server already has progress, migration skipped"
			return nil
		}

		agg.Points = nonNegative(snapshot.Points)
		agg.TotalLitCount = nonNegative(snapshot.TotalLitCount)
		agg.StreakCount = nonNegative(snapshot.StreakCount)
		agg.StreakRarity = ""
		if snapshot.StreakRarity != nil {
			agg.StreakRarity, _ = cards.ParseRarity(*snapshot.StreakRarity)
		}
		agg.UpdatedAt = now

		for _, cardID := range sortedKeys(snapshot.Cards) {
			card := snapshot.Cards[cardID]
			if !s.rules.Catalog.Contains(cardID) {
				result.UnknownCards++
				s.logger.Progression().Warn("Migrating card outside the catalog", "userId", userID, "cardId", cardID)
			}

			cardProgress := &progression.CardProgress{
				UserID:   userID,
				CardID:   cardID,
				Status:   progression.ParseStatus(card.Status),
				LitCount: nonNegative(card.LitCount),
			}
			if card.UnlockedAt != nil && *card.UnlockedAt > 0 {
				unlockedAt := time.UnixMilli(*card.UnlockedAt).UTC()
				cardProgress.UnlockedAt = &unlockedAt
			}
			if err := tx.SaveCardProgress(cardProgress); err != nil {
				return err
			}
			result.CardsApplied++

			for _, record := range card.LitRecords {
				event := &progression.LitEvent{
					CardID:      cardID,
					Timestamp:   now.UnixMilli(),
					EarnedScore: record.EarnedScore,
					CreatedAt:   now,
				}
				if record.Timestamp != nil {
					event.Timestamp = *record.Timestamp
				}
				if record.AIAnalysis != nil {
					event.Analysis = *record.AIAnalysis
				}
				if err := tx.AppendLitEvent(event); err != nil {
					return err
				}
				result.LitRecords++
			}
		}

		if err := tx.SaveAggregate(agg); err != nil {
			return err
		}
		result.Migrated = true
		result.Message = "migration applied"
		return nil
	})
	if err != nil {
		s.logger.Progression().Error("Migration failed", "userId", userID, "error", err.Error())
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	if result.Migrated {
		s.logger.Progression().Info("Migration applied",
			"userId", userID,
			"cards", result.CardsApplied,
			"litRecords", result.LitRecords,
			"unknownCards", result.UnknownCards,
			"duration", time.Since(marker.StartTime))
	} else {
		s.logger.Progression().Info("Migration skipped", "userId", userID, "reason", result.Reason)
	}
	return result, nil
}

func (s *MigrationService) hasLedger(tx progression.UserTx) (bool, error) {
	ledger, err := tx.ListLedger()
	if err != nil {
		return false, err
	}
	return len(ledger) > 0, nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
