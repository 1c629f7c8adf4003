// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/AtRiskMedia/skycards-go/internal/application/services"
	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/classification"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/progression"
	"github.com/AtRiskMedia/skycards-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	ProgressionService *services.ProgressionService
	MigrationService   *services.MigrationService
	PhotoService       *services.PhotoService

	// Game rules shared by every service
	Rules cards.Rules

	// Identity
	JWTSecret   string
	CORSOrigins []string

	// Infrastructure Dependencies
	DB          *database.DB
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services. A nil classifier
// leaves recognition reporting the classification service as unavailable.
func NewContainer(db *database.DB, rules cards.Rules, classifier classification.Classifier, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	store := progression.NewSQLStore(db, logger)
	processor := media.NewPhotoProcessor(config.MaxPhotoBytes)

	return &Container{
		ProgressionService: services.NewProgressionService(store, rules, logger, perfTracker),
		MigrationService:   services.NewMigrationService(store, rules, logger, perfTracker),
		PhotoService:       services.NewPhotoService(store, rules, processor, classifier, config.ClassifierTimeout, logger, perfTracker),

		Rules: rules,

		JWTSecret:   config.JWTSecret,
		CORSOrigins: config.CORSOrigins,

		DB:          db,
		Logger:      logger,
		PerfTracker: perfTracker,
	}
}
