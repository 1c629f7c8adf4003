package progression

import (
	"context"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
)

// Store opens per-user transactions. Every read-modify-write on a user's
// progression state runs inside exactly one WithUserTx call; the callback's
// writes commit together or not at all. Implementations must serialise
// concurrent transactions for the same user and may run different users
// concurrently.
type Store interface {
	WithUserTx(ctx context.Context, userID string, fn func(tx UserTx) error) error
}

// UserTx is the view of one user's state inside a transaction.
type UserTx interface {
	// EnsureInitialized creates the aggregate and starter cards on first
	// touch and returns the materialized aggregate, locked for the rest of
	// the transaction. Repeated calls never re-grant points or re-stamp
	// starter unlock times.
	EnsureInitialized(seed Seed) (*Aggregate, error)

	// GetOrInitCardProgress returns the stored record for cardID, or a
	// locked record with zero lit count when none exists yet.
	GetOrInitCardProgress(cardID string) (*CardProgress, error)
	ListCardProgress() (map[string]*CardProgress, error)

	// ListLedger returns every ledger entry ordered by timestamp ascending.
	ListLedger() ([]LitEvent, error)
	// LastLitEvent returns the most recent ledger entry for cardID, or nil.
	LastLitEvent(cardID string) (*LitEvent, error)

	SaveAggregate(agg *Aggregate) error
	// SaveCardProgress replaces the stored record for the card.
	SaveCardProgress(progress *CardProgress) error
	AppendLitEvent(event *LitEvent) error

	// Fingerprints returns every accepted photo fingerprint for the user.
	Fingerprints() ([]photos.Fingerprint, error)
	RecordFingerprint(fp photos.Fingerprint, at time.Time) error
}
