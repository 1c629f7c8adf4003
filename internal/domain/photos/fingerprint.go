// Package photos defines perceptual photo fingerprints and the
// near-duplicate rule applied to a user's accepted photos.
package photos

import (
	"fmt"
	"math/bits"
	"strconv"
)

// DuplicateThreshold is the largest Hamming distance at which two
// fingerprints are considered the same photo.
const DuplicateThreshold = 5

// Fingerprint is a 64-bit perceptual hash. Bit 63 corresponds to the first
// cell of the 8x8 hash grid in row-major order.
type Fingerprint uint64

// Distance returns the number of differing bits between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// String renders the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint parses the 16-digit hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("fingerprint %q: want 16 hex digits, got %d", s, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// IsDuplicate reports whether candidate lies within threshold of any
// fingerprint in history. The scan is linear; history is one user's photos.
func IsDuplicate(history []Fingerprint, candidate Fingerprint, threshold int) bool {
	for _, h := range history {
		if h.Distance(candidate) <= threshold {
			return true
		}
	}
	return false
}
