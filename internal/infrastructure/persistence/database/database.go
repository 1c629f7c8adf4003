// Package database provides the core functionality for creating and managing
// database connections across the supported SQL engines.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverLibSQL   = "libsql"
	DriverPostgres = "postgres"
)

// Dialect captures the per-engine differences the repositories care about.
type Dialect struct {
	Driver string
	// LockSuffix is appended to SELECTs that must lock the user's row for
	// the rest of the transaction. SQLite engines serialise writers at
	// BEGIN instead and leave it empty.
	LockSuffix string
	numbered   bool
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite, DriverLibSQL:
		return Dialect{Driver: driver}, nil
	case DriverPostgres:
		return Dialect{Driver: driver, LockSuffix: " FOR UPDATE", numbered: true}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLiteDSN builds a go-sqlite3 DSN whose transactions start with BEGIN
// IMMEDIATE, so a transaction holds the write lock from its first read.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + "_txlock=immediate&_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"
}

// TursoDSN appends the auth token to a libsql database URL.
func TursoDSN(databaseURL, authToken string) string {
	if authToken == "" {
		return databaseURL
	}
	return fmt.Sprintf("%s?authToken=%s", databaseURL, authToken)
}

// NewConnectionWithLogger establishes a new database connection for the specified driver with logging.
func NewConnectionWithLogger(ctx context.Context, driverName, dataSourceName string, opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	dialect, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = db.PingContext(ctx); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		db.Close()
		return nil, err
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", driverName, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration, "system")

	return &DB{DB: db, Dialect: dialect}, nil
}
