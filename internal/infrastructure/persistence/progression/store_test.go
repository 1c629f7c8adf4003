package progression

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	schema "github.com/AtRiskMedia/skycards-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/database"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNopLogger()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "progression.db"))
	db, err := database.NewConnectionWithLogger(ctx, database.DriverSQLite, dsn, database.Options{}, logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := schema.NewTableCreator().CreateSchema(ctx, db.DB); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewSQLStore(db, logger)
}

func testSeed(now time.Time) progression.Seed {
	return progression.Seed{
		InitialPoints: 30,
		StarterCards:  []string{"cirrus", "cumulus", "stratus"},
		Now:           now,
	}
}

func TestEnsureInitialized_SeedsOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(now))
		if err != nil {
			return err
		}
		if agg.Points != 30 || agg.TotalLitCount != 0 || agg.StreakCount != 0 || agg.StreakRarity != "" {
			t.Errorf("unexpected fresh aggregate: %+v", agg)
		}
		agg.Points = 5
		return tx.SaveAggregate(agg)
	})
	if err != nil {
		t.Fatalf("first transaction: %v", err)
	}

	later := now.Add(time.Hour)
	err = store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(later))
		if err != nil {
			return err
		}
		if agg.Points != 5 {
			t.Errorf("expected points to survive re-init, got %d", agg.Points)
		}
		cardsByID, err := tx.ListCardProgress()
		if err != nil {
			return err
		}
		if len(cardsByID) != 3 {
			t.Fatalf("expected 3 starter cards, got %d", len(cardsByID))
		}
		cirrus := cardsByID["cirrus"]
		if cirrus.Status != progression.StatusUnlocked || cirrus.UnlockedAt == nil || !cirrus.UnlockedAt.Equal(now) {
			t.Errorf("starter card not stamped with first-touch time: %+v", cirrus)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second transaction: %v", err)
	}
}

func TestWithUserTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	boom := errors.New("boom")

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(now))
		if err != nil {
			return err
		}
		agg.Points = 999
		if err := tx.SaveAggregate(agg); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	err = store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(now))
		if err != nil {
			return err
		}
		if agg.Points != 30 {
			t.Errorf("expected rollback to discard writes, got %d points", agg.Points)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second transaction: %v", err)
	}
}

func TestCardProgress_DefaultAndUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		if _, err := tx.EnsureInitialized(testSeed(now)); err != nil {
			return err
		}
		p, err := tx.GetOrInitCardProgress("altocumulus")
		if err != nil {
			return err
		}
		if p.Status != progression.StatusLocked || p.LitCount != 0 || p.UnlockedAt != nil {
			t.Errorf("expected locked default, got %+v", p)
		}

		p.Status = progression.StatusLit
		p.LitCount = 2
		p.UnlockedAt = &now
		if err := tx.SaveCardProgress(p); err != nil {
			return err
		}
		p.LitCount = 3
		if err := tx.SaveCardProgress(p); err != nil {
			return err
		}

		got, err := tx.GetOrInitCardProgress("altocumulus")
		if err != nil {
			return err
		}
		if got.Status != progression.StatusLit || got.LitCount != 3 || got.UnlockedAt == nil {
			t.Errorf("upsert not applied: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestLedger_AppendOrderAndLast(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		if _, err := tx.EnsureInitialized(testSeed(now)); err != nil {
			return err
		}
		events := []*progression.LitEvent{
			{CardID: "cirrus", Timestamp: now.Add(2 * time.Minute).UnixMilli(), EarnedScore: 12},
			{CardID: "cirrus", Timestamp: now.UnixMilli(), EarnedScore: 10, Analysis: progression.Analysis{Genus: "Cirrus"}},
			{CardID: "cumulus", Timestamp: now.Add(time.Minute).UnixMilli(), EarnedScore: 0},
		}
		for _, e := range events {
			if err := tx.AppendLitEvent(e); err != nil {
				return err
			}
			if e.ID == "" {
				t.Errorf("expected id to be assigned")
			}
		}

		ledger, err := tx.ListLedger()
		if err != nil {
			return err
		}
		if len(ledger) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(ledger))
		}
		for i := 1; i < len(ledger); i++ {
			if ledger[i].Timestamp < ledger[i-1].Timestamp {
				t.Errorf("ledger not ordered by timestamp: %+v", ledger)
			}
		}
		if ledger[0].Analysis.Genus != "Cirrus" || ledger[0].Analysis.Family != "" {
			t.Errorf("analysis not round-tripped: %+v", ledger[0].Analysis)
		}

		last, err := tx.LastLitEvent("cirrus")
		if err != nil {
			return err
		}
		if last == nil || last.EarnedScore != 12 {
			t.Errorf("expected newest cirrus entry, got %+v", last)
		}

		none, err := tx.LastLitEvent("stratus")
		if err != nil {
			return err
		}
		if none != nil {
			t.Errorf("expected no stratus entry, got %+v", none)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestFingerprints_RecordAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		if err := tx.RecordFingerprint(photos.Fingerprint(0xdeadbeefcafef00d), now); err != nil {
			return err
		}
		return tx.RecordFingerprint(photos.Fingerprint(1), now)
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	err = store.WithUserTx(ctx, "u2", func(tx progression.UserTx) error {
		fps, err := tx.Fingerprints()
		if err != nil {
			return err
		}
		if len(fps) != 0 {
			t.Errorf("fingerprints leaked across users: %v", fps)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load u2: %v", err)
	}

	err = store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		fps, err := tx.Fingerprints()
		if err != nil {
			return err
		}
		if len(fps) != 2 {
			t.Fatalf("expected 2 fingerprints, got %d", len(fps))
		}
		if !photos.IsDuplicate(fps, photos.Fingerprint(0xdeadbeefcafef00d), photos.DuplicateThreshold) {
			t.Errorf("expected stored fingerprint to match itself")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load u1: %v", err)
	}
}

func TestAggregate_StreakRarityRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(now))
		if err != nil {
			return err
		}
		agg.StreakRarity = cards.RarityRare
		agg.StreakCount = 3
		agg.TotalLitCount = 7
		return tx.SaveAggregate(agg)
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	err = store.WithUserTx(ctx, "u1", func(tx progression.UserTx) error {
		agg, err := tx.EnsureInitialized(testSeed(now))
		if err != nil {
			return err
		}
		if agg.StreakRarity != cards.RarityRare || agg.StreakCount != 3 || agg.TotalLitCount != 7 {
			t.Errorf("aggregate not round-tripped: %+v", agg)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
}
