package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	schema "github.com/AtRiskMedia/skycards-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/database"
	progressionstore "github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/progression"
)

// fakeClock is a settable time source shared by the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testRules() cards.Rules {
	rules := cards.DefaultRules()
	rules.Catalog = cards.MustCatalog([]cards.Card{
		{ID: "a", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "b", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "c", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "d", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "e", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "f", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "g", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "h", BaseScore: 10, Rarity: cards.RarityCommon},
		{ID: "storm", BaseScore: 25, Rarity: cards.RarityRare},
		{ID: "aurora", BaseScore: 55, Rarity: cards.RarityMythic},
	})
	rules.StarterCards = []string{"a", "b", "c"}
	return rules
}

type testEnv struct {
	store       *progressionstore.SQLStore
	rules       cards.Rules
	clock       *fakeClock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	progression *ProgressionService
	migration   *MigrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNopLogger()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "services.db"))
	db, err := database.NewConnectionWithLogger(ctx, database.DriverSQLite, dsn, database.Options{}, logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := schema.NewTableCreator().CreateSchema(ctx, db.DB); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	env := &testEnv{
		store:       progressionstore.NewSQLStore(db, logger),
		rules:       testRules(),
		clock:       newFakeClock(),
		logger:      logger,
		perfTracker: performance.NewTracker(performance.DefaultTrackerConfig()),
	}
	env.progression = NewProgressionService(env.store, env.rules, logger, env.perfTracker).WithClock(env.clock.Now)
	env.migration = NewMigrationService(env.store, env.rules, logger, env.perfTracker).WithClock(env.clock.Now)
	return env
}
