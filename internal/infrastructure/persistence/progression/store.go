// Package progression provides the SQL-backed implementation of the
// progression store: user aggregates, card progress, the lit ledger, and
// photo fingerprints, all accessed through per-user transactions.
package progression

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/persistence/database"
)

const timeLayout = time.RFC3339Nano

// SQLStore is the SQL-based implementation of progression.Store.
type SQLStore struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLStore creates a new instance of the store.
func NewSQLStore(db *database.DB, logger *logging.ChanneledLogger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger,
	}
}

// WithUserTx runs fn inside one database transaction scoped to userID.
// SQLite connections begin IMMEDIATE; Postgres locks the user's aggregate
// row in EnsureInitialized. Any error from fn rolls everything back.
func (s *SQLStore) WithUserTx(ctx context.Context, userID string, fn func(tx progression.UserTx) error) error {
	start := time.Now()
	s.logger.Database().Debug("Beginning user transaction", "userId", userID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Database().Error("Failed to begin user transaction", "error", err.Error(), "userId", userID)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	utx := &sqlUserTx{
		ctx:     ctx,
		tx:      tx,
		userID:  userID,
		dialect: s.db.Dialect,
		logger:  s.logger,
	}
	if err := fn(utx); err != nil {
		s.logger.Database().Debug("User transaction rolled back", "userId", userID, "reason", err.Error())
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Database().Error("Failed to commit user transaction", "error", err.Error(), "userId", userID)
		return fmt.Errorf("commit transaction: %w", err)
	}

	duration := time.Since(start)
	s.logger.Database().Debug("User transaction committed", "userId", userID, "statements", utx.statements, "duration", duration)
	database.CheckAndLogSlowQuery(s.logger, "USER_TRANSACTION", duration, userID)
	return nil
}

// sqlUserTx implements progression.UserTx over a *sql.Tx.
type sqlUserTx struct {
	ctx        context.Context
	tx         *sql.Tx
	userID     string
	dialect    database.Dialect
	logger     *logging.ChanneledLogger
	statements int
}

func (t *sqlUserTx) exec(query string, args ...any) (sql.Result, error) {
	start := time.Now()
	t.statements++
	res, err := t.tx.ExecContext(t.ctx, t.dialect.Rebind(query), args...)
	database.CheckAndLogSlowQuery(t.logger, query, time.Since(start), t.userID)
	return res, err
}

func (t *sqlUserTx) query(query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	t.statements++
	rows, err := t.tx.QueryContext(t.ctx, t.dialect.Rebind(query), args...)
	database.CheckAndLogSlowQuery(t.logger, query, time.Since(start), t.userID)
	return rows, err
}

func (t *sqlUserTx) queryRow(query string, args ...any) *sql.Row {
	start := time.Now()
	t.statements++
	row := t.tx.QueryRowContext(t.ctx, t.dialect.Rebind(query), args...)
	database.CheckAndLogSlowQuery(t.logger, query, time.Since(start), t.userID)
	return row
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timeLayout)
}

// parseTime accepts RFC3339 variants and the bare SQL datetime layout.
func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(timeLayout, s)
	if err != nil {
		ts, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return ts.UTC(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(ts *time.Time) sql.NullString {
	if ts == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*ts), Valid: true}
}

var _ progression.Store = (*SQLStore)(nil)
var _ progression.UserTx = (*sqlUserTx)(nil)
