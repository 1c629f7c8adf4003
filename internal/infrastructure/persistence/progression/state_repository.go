package progression

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
)

// EnsureInitialized creates the user's aggregate and starter cards on first
// touch, then loads the aggregate under the dialect's row lock.
func (t *sqlUserTx) EnsureInitialized(seed progression.Seed) (*progression.Aggregate, error) {
	const insertState = `
		INSERT INTO user_state (user_id, points, total_lit_count, streak_rarity, streak_count, updated_at)
		VALUES (?, ?, 0, NULL, 0, ?)
		ON CONFLICT (user_id) DO NOTHING`

	start := time.Now()
	now := formatTime(seed.Now)

	res, err := t.exec(insertState, t.userID, seed.InitialPoints, now)
	if err != nil {
		t.logger.Database().Error("User state insert failed", "error", err.Error(), "userId", t.userID)
		return nil, fmt.Errorf("initialize user state: %w", err)
	}

	created, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("initialize user state: %w", err)
	}

	if created == 1 {
		const insertStarter = `
			INSERT INTO user_cards (user_id, card_id, status, lit_count, unlocked_at)
			VALUES (?, ?, ?, 0, ?)
			ON CONFLICT (user_id, card_id) DO NOTHING`

		for _, cardID := range seed.StarterCards {
			if _, err := t.exec(insertStarter, t.userID, cardID, string(progression.StatusUnlocked), now); err != nil {
				t.logger.Database().Error("Starter card insert failed", "error", err.Error(), "userId", t.userID, "cardId", cardID)
				return nil, fmt.Errorf("grant starter card %s: %w", cardID, err)
			}
		}
		t.logger.Database().Info("User state initialized", "userId", t.userID, "points", seed.InitialPoints, "starterCards", len(seed.StarterCards), "duration", time.Since(start))
	}

	return t.loadAggregate()
}

func (t *sqlUserTx) loadAggregate() (*progression.Aggregate, error) {
	query := `
		SELECT points, total_lit_count, streak_rarity, streak_count, updated_at
		FROM user_state
		WHERE user_id = ?` + t.dialect.LockSuffix

	agg := progression.Aggregate{UserID: t.userID}
	var streakRarity sql.NullString
	var updatedAt string

	err := t.queryRow(query, t.userID).Scan(
		&agg.Points,
		&agg.TotalLitCount,
		&streakRarity,
		&agg.StreakCount,
		&updatedAt,
	)
	if err != nil {
		t.logger.Database().Error("Failed to load user state", "error", err.Error(), "userId", t.userID)
		return nil, fmt.Errorf("load user state: %w", err)
	}

	if streakRarity.Valid {
		agg.StreakRarity = cards.Rarity(streakRarity.String)
	}
	if agg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("load user state: updated_at: %w", err)
	}

	return &agg, nil
}

// SaveAggregate writes every aggregate field back.
func (t *sqlUserTx) SaveAggregate(agg *progression.Aggregate) error {
	const query = `
		UPDATE user_state
		SET points = ?, total_lit_count = ?, streak_rarity = ?, streak_count = ?, updated_at = ?
		WHERE user_id = ?`

	start := time.Now()
	t.logger.Database().Debug("Executing user state update", "userId", t.userID, "points", agg.Points)

	res, err := t.exec(query,
		agg.Points,
		agg.TotalLitCount,
		nullString(string(agg.StreakRarity)),
		agg.StreakCount,
		formatTime(agg.UpdatedAt),
		t.userID,
	)
	if err != nil {
		t.logger.Database().Error("User state update failed", "error", err.Error(), "userId", t.userID)
		return fmt.Errorf("save user state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return fmt.Errorf("save user state: expected 1 row, updated %d", n)
	}

	t.logger.Database().Info("User state update completed", "userId", t.userID, "points", agg.Points, "streakCount", agg.StreakCount, "duration", time.Since(start))
	return nil
}

// GetOrInitCardProgress loads one card's progress or materializes the
// locked default.
func (t *sqlUserTx) GetOrInitCardProgress(cardID string) (*progression.CardProgress, error) {
	const query = `
		SELECT status, lit_count, unlocked_at
		FROM user_cards
		WHERE user_id = ? AND card_id = ?`

	progress := &progression.CardProgress{UserID: t.userID, CardID: cardID}
	var status string
	var unlockedAt sql.NullString

	err := t.queryRow(query, t.userID, cardID).Scan(&status, &progress.LitCount, &unlockedAt)
	if err == sql.ErrNoRows {
		t.logger.Database().Debug("Card progress not found, using locked default", "userId", t.userID, "cardId", cardID)
		progress.Status = progression.StatusLocked
		return progress, nil
	}
	if err != nil {
		t.logger.Database().Error("Failed to load card progress", "error", err.Error(), "userId", t.userID, "cardId", cardID)
		return nil, fmt.Errorf("load card %s: %w", cardID, err)
	}

	progress.Status = progression.ParseStatus(status)
	if progress.UnlockedAt, err = parseNullTime(unlockedAt); err != nil {
		return nil, fmt.Errorf("load card %s: unlocked_at: %w", cardID, err)
	}
	return progress, nil
}

// ListCardProgress returns every stored card record keyed by card id.
func (t *sqlUserTx) ListCardProgress() (map[string]*progression.CardProgress, error) {
	const query = `
		SELECT card_id, status, lit_count, unlocked_at
		FROM user_cards
		WHERE user_id = ?
		ORDER BY card_id`

	start := time.Now()
	rows, err := t.query(query, t.userID)
	if err != nil {
		t.logger.Database().Error("Failed to list card progress", "error", err.Error(), "userId", t.userID)
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*progression.CardProgress)
	for rows.Next() {
		p := &progression.CardProgress{UserID: t.userID}
		var status string
		var unlockedAt sql.NullString
		if err := rows.Scan(&p.CardID, &status, &p.LitCount, &unlockedAt); err != nil {
			return nil, fmt.Errorf("list cards: %w", err)
		}
		p.Status = progression.ParseStatus(status)
		if p.UnlockedAt, err = parseNullTime(unlockedAt); err != nil {
			return nil, fmt.Errorf("list cards: %s unlocked_at: %w", p.CardID, err)
		}
		out[p.CardID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	t.logger.Database().Debug("Card progress listed", "userId", t.userID, "count", len(out), "duration", time.Since(start))
	return out, nil
}

// SaveCardProgress upserts the card record, replacing all fields.
func (t *sqlUserTx) SaveCardProgress(p *progression.CardProgress) error {
	const query = `
		INSERT INTO user_cards (user_id, card_id, status, lit_count, unlocked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			status = excluded.status,
			lit_count = excluded.lit_count,
			unlocked_at = excluded.unlocked_at`

	start := time.Now()
	t.logger.Database().Debug("Executing card progress upsert", "userId", t.userID, "cardId", p.CardID, "status", p.Status)

	_, err := t.exec(query, t.userID, p.CardID, string(p.Status), p.LitCount, nullTime(p.UnlockedAt))
	if err != nil {
		t.logger.Database().Error("Card progress upsert failed", "error", err.Error(), "userId", t.userID, "cardId", p.CardID)
		return fmt.Errorf("save card %s: %w", p.CardID, err)
	}

	t.logger.Database().Info("Card progress upsert completed", "userId", t.userID, "cardId", p.CardID, "status", p.Status, "litCount", p.LitCount, "duration", time.Since(start))
	return nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	ts, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
