// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/application/container"
	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/classification"
	schema "github.com/AtRiskMedia/skycards-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/skycards-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/skycards-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()
	ctx := context.Background()

	// Step 1: Channeled logging
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSON,
		DefaultLevel:    logging.ParseLevel(config.LogLevel),
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Starting card progression service", "driver", config.DBDriver)

	// Step 2: Game rules
	rules := cards.DefaultRules()
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("invalid game rules: %w", err)
	}
	logger.Startup().Info("Game rules loaded", "cards", rules.Catalog.Len(), "starterCards", len(rules.StarterCards))

	// Step 3: Database and schema
	db, err := database.Open(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	schemaStart := time.Now()
	if err := schema.NewTableCreator().CreateSchema(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Startup().Info("Schema ready", "duration", time.Since(schemaStart))

	// Step 4: Classification adapter
	prompt, err := classification.LoadPrompt(config.ClassifierPromptFile)
	if err != nil {
		return err
	}
	if config.ClassifierAPIKey == "" {
		logger.Startup().Warn("CLASSIFIER_API_KEY not set, recognition will report the service as unavailable")
	}
	classifier := classification.NewChatClient(classification.ChatConfig{
		Endpoint:  config.ClassifierURL,
		APIKey:    config.ClassifierAPIKey,
		Model:     config.ClassifierModel,
		MaxTokens: config.ClassifierMaxTokens,
		Prompt:    prompt,
		Timeout:   config.ClassifierTimeout,
	}, logger)

	if config.JWTSecret == "" {
		logger.Startup().Warn("JWT_SECRET not set, all authenticated routes will reject requests")
	}

	// Step 5: Dependency injection container
	perfTracker := performance.NewTracker(&performance.TrackerConfig{
		SlowThreshold: config.SlowQueryThreshold,
		MaxOperations: performance.DefaultTrackerConfig().MaxOperations,
	})
	appContainer := container.NewContainer(db, rules, classifier, logger, perfTracker)

	// Step 6: HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures gin and the standard logger used before the
// channeled logger exists
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
