// Package compare renders a tamper verdict over two independently produced
// frame ledgers. Two signals are evaluated per matched frame and either one
// alone can tip the verdict: a per-cell fingerprint difference beyond the
// tolerance window, and an exact digest mismatch. Tolerance catches
// near-threshold manipulation on noisy captures, the
// digest catches anything at all when the fingerprints were not persisted.
package compare

import (
	"errors"
	"sort"

	"streamauth/internal/ledger"
)

// Defaults for the comparison options.
const (
	DefaultTolerance      = 10
	DefaultThresholdRatio = 0.1
)

// ErrNoCommonFrames is returned when the two ledgers share no frame ids.
// A comparison over nothing is a definitive failure, never a verdict.
var ErrNoCommonFrames = errors.New("compare: ledgers share no frame ids")

// Classification is the session-level verdict.
type Classification string

const (
	Authentic Classification = "AUTHENTIC"
	Tampered  Classification = "TAMPERED"
)

// Options tunes the comparison.
type Options struct {
	// Tolerance is the maximum per-cell absolute fingerprint difference
	// before a frame counts as differing.
	Tolerance int32

	// ThresholdRatio is the differing/matched ratio above which the
	// session is classified TAMPERED.
	ThresholdRatio float64
}

// DefaultOptions returns the standard tolerance and threshold.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, ThresholdRatio: DefaultThresholdRatio}
}

// Verdict is the outcome of an offline comparison.
type Verdict struct {
	Classification       Classification
	MatchedFrameCount    int
	DifferingFrameCount  int
	HashMismatchFrameIDs []uint64
}

// Compare matches two snapshots by frame id and renders a verdict. Only
// frame ids present in both ledgers are compared; the tolerance signal is
// evaluated only where both records carry fingerprints of equal length,
// the digest signal always.
func Compare(a, b ledger.Snapshot, opts Options) (Verdict, error) {
	differing := 0
	matched := 0
	var mismatches []uint64

	for _, recA := range a.Records() {
		recB, ok := b.Get(recA.FrameID)
		if !ok {
			continue
		}
		matched++

		if len(recA.Fingerprint) > 0 && len(recA.Fingerprint) == len(recB.Fingerprint) {
			if exceedsTolerance(recA.Fingerprint, recB.Fingerprint, opts.Tolerance) {
				differing++
			}
		}
		if recA.Digest != recB.Digest {
			mismatches = append(mismatches, recA.FrameID)
		}
	}

	if matched == 0 {
		return Verdict{}, ErrNoCommonFrames
	}

	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i] < mismatches[j] })
	v := Verdict{
		Classification:       Authentic,
		MatchedFrameCount:    matched,
		DifferingFrameCount:  differing,
		HashMismatchFrameIDs: mismatches,
	}
	if float64(differing)/float64(matched) > opts.ThresholdRatio || len(mismatches) > 0 {
		v.Classification = Tampered
	}
	return v, nil
}

func exceedsTolerance(a, b []int32, tolerance int32) bool {
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return true
		}
	}
	return false
}

// CombinedResult pairs the two sessions' combined digests with an
// equality flag for whole-session integrity comparison.
type CombinedResult struct {
	DigestA string
	DigestB string
	Equal   bool
}

// CombinedEqual computes both snapshots' combined digests under one
// aggregation mode and reports whether they match.
func CombinedEqual(a, b ledger.Snapshot, mode ledger.AggregationMode) (CombinedResult, error) {
	da, err := ledger.Combine(a, mode)
	if err != nil {
		return CombinedResult{}, err
	}
	db, err := ledger.Combine(b, mode)
	if err != nil {
		return CombinedResult{}, err
	}
	return CombinedResult{DigestA: da, DigestB: db, Equal: da == db}, nil
}
