// Package security provides id generation and bearer token validation
package security

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateULIDAt generates a ULID whose time component is t. Used when
// importing historical rows so ids sort with their original timestamps.
// Times outside the ULID range are clamped into [0, ulid.MaxTime()].
func GenerateULIDAt(t time.Time) string {
	var ms uint64
	if millis := t.UnixMilli(); millis > 0 {
		ms = min(uint64(millis), ulid.MaxTime())
	}
	id, err := ulid.New(ms, rand.Reader)
	if err != nil {
		return GenerateULID()
	}
	return id.String()
}
