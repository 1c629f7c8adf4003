// Package database provides schema creation for the progression store
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and
// indexes. Every statement is idempotent and portable across SQLite, libsql
// and Postgres.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS user_state (user_id TEXT PRIMARY KEY, points BIGINT NOT NULL DEFAULT 30, total_lit_count BIGINT NOT NULL DEFAULT 0, streak_rarity TEXT, streak_count INTEGER NOT NULL DEFAULT 0, updated_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS user_cards (user_id TEXT NOT NULL, card_id TEXT NOT NULL, status TEXT NOT NULL DEFAULT 'locked', lit_count INTEGER NOT NULL DEFAULT 0, unlocked_at TEXT, PRIMARY KEY (user_id, card_id))`,
	`CREATE TABLE IF NOT EXISTS lit_records (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, card_id TEXT NOT NULL, timestamp BIGINT NOT NULL, earned_score INTEGER NOT NULL DEFAULT 0, ai_family TEXT, ai_genus TEXT, ai_species TEXT, ai_features TEXT, ai_weather TEXT, ai_knowledge TEXT, created_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS image_hashes (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, phash TEXT NOT NULL, created_at TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_user_cards_user ON user_cards(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_lit_records_user_card ON lit_records(user_id, card_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_lit_records_user_time ON lit_records(user_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_image_hashes_user ON image_hashes(user_id)`,
}
