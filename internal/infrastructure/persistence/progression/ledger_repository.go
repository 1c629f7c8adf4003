package progression

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/security"
)

const ledgerColumns = `id, card_id, timestamp, earned_score, ai_family, ai_genus, ai_species, ai_features, ai_weather, ai_knowledge, created_at`

// ListLedger returns the user's full ledger, oldest first.
func (t *sqlUserTx) ListLedger() ([]progression.LitEvent, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM lit_records
		WHERE user_id = ?
		ORDER BY timestamp ASC, id ASC`

	start := time.Now()
	rows, err := t.query(query, t.userID)
	if err != nil {
		t.logger.Database().Error("Failed to list lit records", "error", err.Error(), "userId", t.userID)
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var events []progression.LitEvent
	for rows.Next() {
		event, err := t.scanLitEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list ledger: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	t.logger.Database().Debug("Lit records listed", "userId", t.userID, "count", len(events), "duration", time.Since(start))
	return events, nil
}

// LastLitEvent returns the newest ledger entry for a card, or nil.
func (t *sqlUserTx) LastLitEvent(cardID string) (*progression.LitEvent, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM lit_records
		WHERE user_id = ? AND card_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	rows, err := t.query(query, t.userID, cardID)
	if err != nil {
		t.logger.Database().Error("Failed to load last lit record", "error", err.Error(), "userId", t.userID, "cardId", cardID)
		return nil, fmt.Errorf("last lit record for %s: %w", cardID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("last lit record for %s: %w", cardID, err)
		}
		return nil, nil
	}
	event, err := t.scanLitEvent(rows)
	if err != nil {
		return nil, fmt.Errorf("last lit record for %s: %w", cardID, err)
	}
	return event, nil
}

// AppendLitEvent inserts a new ledger entry. Entries are never updated.
func (t *sqlUserTx) AppendLitEvent(event *progression.LitEvent) error {
	query := `INSERT INTO lit_records (user_id, ` + ledgerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if event.ID == "" {
		event.ID = security.GenerateULIDAt(event.Time())
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.UserID = t.userID

	start := time.Now()
	t.logger.Database().Debug("Executing lit record insert", "id", event.ID, "userId", t.userID, "cardId", event.CardID)

	_, err := t.exec(query,
		t.userID,
		event.ID,
		event.CardID,
		event.Timestamp,
		event.EarnedScore,
		nullString(event.Analysis.Family),
		nullString(event.Analysis.Genus),
		nullString(event.Analysis.Species),
		nullString(event.Analysis.Features),
		nullString(event.Analysis.Weather),
		nullString(event.Analysis.Knowledge),
		formatTime(event.CreatedAt),
	)
	if err != nil {
		t.logger.Database().Error("Lit record insert failed", "error", err.Error(), "id", event.ID, "userId", t.userID, "cardId", event.CardID)
		return fmt.Errorf("append lit record: %w", err)
	}

	t.logger.Database().Info("Lit record insert completed", "id", event.ID, "userId", t.userID, "cardId", event.CardID, "earnedScore", event.EarnedScore, "duration", time.Since(start))
	return nil
}

// scanLitEvent is a helper function to scan a row into a LitEvent struct.
func (t *sqlUserTx) scanLitEvent(rows *sql.Rows) (*progression.LitEvent, error) {
	event := progression.LitEvent{UserID: t.userID}
	var family, genus, species, features, weather, knowledge sql.NullString
	var createdAt string

	if err := rows.Scan(
		&event.ID,
		&event.CardID,
		&event.Timestamp,
		&event.EarnedScore,
		&family,
		&genus,
		&species,
		&features,
		&weather,
		&knowledge,
		&createdAt,
	); err != nil {
		return nil, err
	}

	event.Analysis = progression.Analysis{
		Family:    family.String,
		Genus:     genus.String,
		Species:   species.String,
		Features:  features.String,
		Weather:   weather.String,
		Knowledge: knowledge.String,
	}

	var err error
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	return &event, nil
}
