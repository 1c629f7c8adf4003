// Package database provides database helper functions
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/pkg/config"
)

// TestTursoConnectionWithLogger tests the Turso database connection with logging
func TestTursoConnectionWithLogger(ctx context.Context, databaseURL, authToken string, logger *logging.ChanneledLogger) error {
	start := time.Now()
	logger.Database().Debug("Testing Turso database connection", "databaseURL", databaseURL)

	db, err := sql.Open(DriverLibSQL, TursoDSN(databaseURL, authToken))
	if err != nil {
		logger.Database().Error("Failed to open Turso connection", "error", err.Error(), "databaseURL", databaseURL)
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		logger.Database().Error("Turso connection test query failed", "error", err.Error(), "databaseURL", databaseURL)
		return fmt.Errorf("connection test query failed: %w", err)
	}

	if result != 1 {
		logger.Database().Error("Unexpected Turso query result", "result", result, "expected", 1, "databaseURL", databaseURL)
		return fmt.Errorf("unexpected query result: %d", result)
	}

	logger.Database().Info("Turso connection test successful", "databaseURL", databaseURL, "duration", time.Since(start))
	return nil
}

// GetSlowQueryThreshold returns the configured slow query threshold
func GetSlowQueryThreshold() time.Duration {
	return config.SlowQueryThreshold
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, userID string) {
	threshold := GetSlowQueryThreshold()

	// Migration imports are bulk writes; give them more headroom
	if strings.HasPrefix(query, "BULK_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration, userID)
	}
}

// Open resolves the configured driver into a live connection. libsql uses
// the Turso URL and token when set, otherwise DB_DSN verbatim.
func Open(ctx context.Context, logger *logging.ChanneledLogger) (*DB, error) {
	opts := Options{
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
	}

	switch config.DBDriver {
	case DriverSQLite:
		return NewConnectionWithLogger(ctx, DriverSQLite, SQLiteDSN(config.DBDSN), opts, logger)
	case DriverLibSQL:
		dsn := config.DBDSN
		if config.TursoDatabaseURL != "" {
			if err := TestTursoConnectionWithLogger(ctx, config.TursoDatabaseURL, config.TursoAuthToken, logger); err != nil {
				return nil, err
			}
			dsn = TursoDSN(config.TursoDatabaseURL, config.TursoAuthToken)
		}
		return NewConnectionWithLogger(ctx, DriverLibSQL, dsn, opts, logger)
	case DriverPostgres:
		return NewConnectionWithLogger(ctx, DriverPostgres, config.DBDSN, opts, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.DBDriver)
	}
}
