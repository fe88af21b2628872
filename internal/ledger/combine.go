package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"streamauth/internal/fingerprint"
)

// AggregationMode selects how a session's per-frame data is folded into one
// combined digest. The two strategies hash different byte streams and are
// never interchangeable; a deployment picks one and uses it for both sides
// of every comparison.
type AggregationMode string

const (
	// AggregateFingerprints hashes the concatenation of every frame's raw
	// fingerprint integers, in frame-id order.
	AggregateFingerprints AggregationMode = "fingerprints"

	// AggregateDigests hashes the concatenation of every frame's hex digest
	// string, in frame-id order.
	AggregateDigests AggregationMode = "digests"
)

// ParseAggregationMode maps a config string to an AggregationMode,
// defaulting to AggregateFingerprints.
func ParseAggregationMode(s string) AggregationMode {
	if AggregationMode(s) == AggregateDigests {
		return AggregateDigests
	}
	return AggregateFingerprints
}

// ErrMissingFingerprints is returned when fingerprint aggregation is asked
// of a snapshot whose records carry digests only.
var ErrMissingFingerprints = errors.New("ledger: snapshot has records without fingerprints")

// Combine computes the session-level combined digest of a finalized
// snapshot. Any single differing or reordered frame changes the result.
func Combine(s Snapshot, mode AggregationMode) (string, error) {
	if mode == AggregateDigests {
		h := sha256.New()
		for _, rec := range s.records {
			h.Write([]byte(rec.Digest))
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	var all []int32
	for _, rec := range s.records {
		if rec.Fingerprint == nil {
			return "", fmt.Errorf("%w: frame %d", ErrMissingFingerprints, rec.FrameID)
		}
		all = append(all, rec.Fingerprint...)
	}
	return fingerprint.Digest(all), nil
}
