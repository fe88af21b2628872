package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// persistedEntry is the on-disk shape of one frame: the decimal frame id
// maps to its sha256 and wall-clock timestamp. Fingerprints are written
// only when the deployment keeps them; readers that don't know the field
// ignore it, so the log stays compatible with the sha-log format.
type persistedEntry struct {
	SHA256      string  `json:"sha256"`
	Timestamp   string  `json:"timestamp"`
	Fingerprint []int32 `json:"fingerprint,omitempty"`
}

// Save writes a finalized snapshot as a JSON sha log at path, creating
// parent directories as needed.
func Save(s Snapshot, path string) error {
	out := make(map[string]persistedEntry, s.Len())
	for _, rec := range s.records {
		out[strconv.FormatUint(rec.FrameID, 10)] = persistedEntry{
			SHA256:      rec.Digest,
			Timestamp:   rec.Timestamp,
			Fingerprint: rec.Fingerprint,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// Load reads a persisted sha log back into a snapshot. The round trip is
// lossless for frame id, timestamp and digest.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read ledger: %w", err)
	}

	var in map[string]persistedEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return Snapshot{}, fmt.Errorf("decode ledger %s: %w", path, err)
	}

	records := make([]Record, 0, len(in))
	for key, entry := range in {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode ledger %s: bad frame id %q: %w", path, key, err)
		}
		records = append(records, Record{
			FrameID:     id,
			Timestamp:   entry.Timestamp,
			Digest:      entry.SHA256,
			Fingerprint: entry.Fingerprint,
		})
	}
	return SnapshotOf(records), nil
}
