package progression

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/security"
)

// Fingerprints loads every accepted photo hash for the user. Rows that fail
// to parse are logged and skipped rather than failing the whole scan.
func (t *sqlUserTx) Fingerprints() ([]photos.Fingerprint, error) {
	const query = `
		SELECT phash
		FROM image_hashes
		WHERE user_id = ?`

	start := time.Now()
	t.logger.Database().Debug("Loading image hashes", "userId", t.userID)

	rows, err := t.query(query, t.userID)
	if err != nil {
		t.logger.Database().Error("Failed to load image hashes", "error", err.Error(), "userId", t.userID)
		return nil, fmt.Errorf("load image hashes: %w", err)
	}
	defer rows.Close()

	var out []photos.Fingerprint
	for rows.Next() {
		var hex string
		if err := rows.Scan(&hex); err != nil {
			return nil, fmt.Errorf("load image hashes: %w", err)
		}
		fp, err := photos.ParseFingerprint(hex)
		if err != nil {
			t.logger.Database().Warn("Skipping malformed image hash", "error", err.Error(), "userId", t.userID)
			continue
		}
		out = append(out, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load image hashes: %w", err)
	}

	t.logger.Database().Debug("Image hashes loaded", "userId", t.userID, "count", len(out), "duration", time.Since(start))
	return out, nil
}

// RecordFingerprint appends a new image hash for the user.
func (t *sqlUserTx) RecordFingerprint(fp photos.Fingerprint, at time.Time) error {
	const query = `
		INSERT INTO image_hashes (id, user_id, phash, created_at)
		VALUES (?, ?, ?, ?)`

	id := security.GenerateULID()
	start := time.Now()
	t.logger.Database().Debug("Executing image hash insert", "id", id, "userId", t.userID)

	if _, err := t.exec(query, id, t.userID, fp.String(), formatTime(at)); err != nil {
		t.logger.Database().Error("Image hash insert failed", "error", err.Error(), "id", id, "userId", t.userID)
		return fmt.Errorf("record image hash: %w", err)
	}

	t.logger.Database().Info("Image hash insert completed", "id", id, "userId", t.userID, "phash", fp.String(), "duration", time.Since(start))
	return nil
}
