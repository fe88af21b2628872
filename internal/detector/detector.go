// Package detector implements the online per-frame divergence check: for
// every captured frame it digests the input fingerprint and the (possibly
// transformed) output fingerprint, appends both to their session ledgers,
// and flags the frame id when the digests differ.
package detector

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"streamauth/internal/fingerprint"
	"streamauth/internal/ledger"
)

// ErrMalformedFrame is returned when a frame yielded no fingerprint; the
// frame is skipped and the capture loop continues.
var ErrMalformedFrame = errors.New("detector: malformed frame, no fingerprint computable")

// Result is the outcome of one frame's divergence check.
type Result struct {
	FrameID      uint64
	InputDigest  string
	OutputDigest string
	Tampered     bool
}

// Status is a point-in-time view for pollers: the latest frame's digests
// and the tampered ids accumulated so far.
type Status struct {
	FrameID        uint64
	FrameCount     int
	InputDigest    string
	OutputDigest   string
	TamperedFrames []uint64
}

// Detector compares input and output fingerprints frame by frame. It keeps
// no per-frame state beyond the growing ledgers and tampered set, so the
// per-frame outcome is independent of evaluation order.
type Detector struct {
	input  *ledger.Ledger
	output *ledger.Ledger

	keepFingerprints bool

	mu       sync.Mutex
	tampered map[uint64]struct{}
	last     Result
	hasLast  bool
}

// New creates a detector writing into the two session ledgers. When
// keepFingerprints is set, raw fingerprints are stored alongside digests so
// the offline comparator can apply its tolerance window later.
func New(input, output *ledger.Ledger, keepFingerprints bool) *Detector {
	return &Detector{
		input:            input,
		output:           output,
		keepFingerprints: keepFingerprints,
		tampered:         make(map[uint64]struct{}),
	}
}

// Evaluate digests both fingerprints for one frame, appends both records,
// and records the frame id as tampered when the digests differ. A nil
// fingerprint on either side returns ErrMalformedFrame without touching
// the ledgers; ledger append failures are fatal to the session and are
// returned wrapped.
func (d *Detector) Evaluate(frameID uint64, timestamp string, inputFP, outputFP []int32) (Result, error) {
	if len(inputFP) == 0 || len(outputFP) == 0 {
		return Result{}, fmt.Errorf("%w: frame %d", ErrMalformedFrame, frameID)
	}

	// Digests are pure; compute them before taking the lock.
	inDigest := fingerprint.Digest(inputFP)
	outDigest := fingerprint.Digest(outputFP)

	inRec := ledger.Record{FrameID: frameID, Timestamp: timestamp, Digest: inDigest}
	outRec := ledger.Record{FrameID: frameID, Timestamp: timestamp, Digest: outDigest}
	if d.keepFingerprints {
		inRec.Fingerprint = inputFP
		outRec.Fingerprint = outputFP
	}

	// Appends are ordered input first. When the output append fails the
	// input ledger keeps a record the output lacks; that is acceptable
	// because append errors end the session and the comparator only ever
	// considers frame ids present in both ledgers.
	if err := d.input.Append(inRec); err != nil {
		return Result{}, fmt.Errorf("input ledger: %w", err)
	}
	if err := d.output.Append(outRec); err != nil {
		return Result{}, fmt.Errorf("output ledger: %w", err)
	}

	res := Result{
		FrameID:      frameID,
		InputDigest:  inDigest,
		OutputDigest: outDigest,
		Tampered:     inDigest != outDigest,
	}

	d.mu.Lock()
	if res.Tampered {
		d.tampered[frameID] = struct{}{}
	}
	d.last = res
	d.hasLast = true
	d.mu.Unlock()

	return res, nil
}

// TamperedFrames returns the flagged frame ids in ascending order.
func (d *Detector) TamperedFrames() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]uint64, 0, len(d.tampered))
	for id := range d.tampered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Status returns the latest frame's digests and the tampered set so far.
func (d *Detector) Status() Status {
	d.mu.Lock()
	last := d.last
	hasLast := d.hasLast
	ids := make([]uint64, 0, len(d.tampered))
	for id := range d.tampered {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	st := Status{TamperedFrames: ids, FrameCount: d.input.Len()}
	if hasLast {
		st.FrameID = last.FrameID
		st.InputDigest = last.InputDigest
		st.OutputDigest = last.OutputDigest
	}
	return st
}
