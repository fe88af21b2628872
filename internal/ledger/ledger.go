// Package ledger holds the per-session, append-only record of frame digests.
// A Ledger lives for exactly one recording session: created empty, appended
// to once per frame, then finalized into an immutable Snapshot that gets
// persisted and compared. Records are keyed by frame id; once inserted they
// are never updated or removed.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateFrameID is returned when a frame id is appended twice.
	ErrDuplicateFrameID = errors.New("ledger: duplicate frame id")

	// ErrSessionClosed is returned when appending after Finalize.
	ErrSessionClosed = errors.New("ledger: session closed")
)

// Record is one frame's ledger entry. Fingerprint is optional: digests are
// always persisted, raw fingerprints only when the deployment keeps them.
type Record struct {
	FrameID     uint64
	Timestamp   string
	Digest      string
	Fingerprint []int32
}

// Ledger is an append-only collection of Records for one session.
// Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	records map[uint64]Record
	maxID   uint64
	hasMax  bool
	closed  bool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[uint64]Record)}
}

// Append inserts a record. Fails with ErrDuplicateFrameID if the frame id is
// already present and with ErrSessionClosed after Finalize; both are fatal
// to the calling session.
func (l *Ledger) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("%w: frame %d rejected", ErrSessionClosed, rec.FrameID)
	}
	if _, ok := l.records[rec.FrameID]; ok {
		return fmt.Errorf("%w: frame %d", ErrDuplicateFrameID, rec.FrameID)
	}

	l.records[rec.FrameID] = rec
	if !l.hasMax || rec.FrameID > l.maxID {
		l.maxID = rec.FrameID
		l.hasMax = true
	}
	return nil
}

// Get returns the record for a frame id.
func (l *Ledger) Get(frameID uint64) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[frameID]
	return rec, ok
}

// Latest returns the record with the greatest frame id, or false when empty.
func (l *Ledger) Latest() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasMax {
		return Record{}, false
	}
	return l.records[l.maxID], true
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Finalize closes the ledger and returns an immutable snapshot sorted by
// frame id. Every Append after Finalize fails with ErrSessionClosed.
func (l *Ledger) Finalize() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	records := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FrameID < records[j].FrameID })
	return Snapshot{records: records}
}

// Snapshot is a finalized, read-only view of a session's ledger,
// ordered by ascending frame id.
type Snapshot struct {
	records []Record
}

// SnapshotOf builds a snapshot directly from records, sorting by frame id.
// Used when ledgers are loaded back from their persisted form.
func SnapshotOf(records []Record) Snapshot {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FrameID < sorted[j].FrameID })
	return Snapshot{records: sorted}
}

// Records returns the snapshot's records in frame-id order. The slice is
// shared; callers must not mutate it.
func (s Snapshot) Records() []Record {
	return s.records
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.records)
}

// Get returns the record for a frame id.
func (s Snapshot) Get(frameID uint64) (Record, bool) {
	i := sort.Search(len(s.records), func(i int) bool { return s.records[i].FrameID >= frameID })
	if i < len(s.records) && s.records[i].FrameID == frameID {
		return s.records[i], true
	}
	return Record{}, false
}

// FrameIDs returns the ascending frame ids of the snapshot.
func (s Snapshot) FrameIDs() []uint64 {
	ids := make([]uint64, len(s.records))
	for i, rec := range s.records {
		ids[i] = rec.FrameID
	}
	return ids
}
