package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamauth/internal/fingerprint"
	"streamauth/internal/ledger"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "db_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := New(filepath.Join(tempDir, "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSnapshot(frames int) ledger.Snapshot {
	l := ledger.New()
	for i := 0; i < frames; i++ {
		fp := []int32{int32(i), int32(i) * 3}
		l.Append(ledger.Record{
			FrameID:     uint64(i),
			Timestamp:   "2025-01-02 15:04:05",
			Digest:      fingerprint.Digest(fp),
			Fingerprint: fp,
		})
	}
	return l.Finalize()
}

func TestDatabase_SaveAndLoadSession(t *testing.T) {
	db := testDB(t)
	snap := testSnapshot(8)

	sess := &Session{
		ID:             "sess-1-input",
		Role:           "input",
		StartedAt:      time.Now(),
		CombinedDigest: "abc",
		Aggregation:    "fingerprints",
	}
	if err := db.SaveSession(sess, snap); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := db.LoadSnapshot("sess-1-input")
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if loaded.Len() != snap.Len() {
		t.Fatalf("expected %d frames, got %d", snap.Len(), loaded.Len())
	}
	for _, rec := range snap.Records() {
		got, ok := loaded.Get(rec.FrameID)
		if !ok {
			t.Fatalf("frame %d lost", rec.FrameID)
		}
		if got.Digest != rec.Digest || got.Timestamp != rec.Timestamp {
			t.Errorf("frame %d: digest or timestamp changed", rec.FrameID)
		}
		if len(got.Fingerprint) != len(rec.Fingerprint) {
			t.Errorf("frame %d: fingerprint lost", rec.FrameID)
		}
	}
}

func TestDatabase_LoadUnknownSession(t *testing.T) {
	db := testDB(t)
	if _, err := db.LoadSnapshot("missing"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestDatabase_DigestOnlySession(t *testing.T) {
	db := testDB(t)

	l := ledger.New()
	l.Append(ledger.Record{FrameID: 0, Timestamp: "ts", Digest: "d0"})
	snap := l.Finalize()

	sess := &Session{ID: "bare", Role: "output", StartedAt: time.Now(), Aggregation: "digests"}
	if err := db.SaveSession(sess, snap); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := db.LoadSnapshot("bare")
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	rec, _ := loaded.Get(0)
	if rec.Fingerprint != nil {
		t.Error("expected no fingerprint on digest-only record")
	}
}

func TestDatabase_GetSessionsAndStats(t *testing.T) {
	db := testDB(t)
	snap := testSnapshot(3)

	for _, role := range []string{"input", "output"} {
		sess := &Session{
			ID:          "sess-1-" + role,
			Role:        role,
			StartedAt:   time.Now(),
			Aggregation: "fingerprints",
		}
		if err := db.SaveSession(sess, snap); err != nil {
			t.Fatalf("Failed to save %s session: %v", role, err)
		}
	}

	sessions, err := db.GetSessions(&SessionFilter{})
	if err != nil {
		t.Fatalf("Failed to query sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}

	inputs, err := db.GetSessions(&SessionFilter{Role: "input"})
	if err != nil {
		t.Fatalf("Failed to query sessions: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Role != "input" {
		t.Errorf("role filter failed: %v", inputs)
	}
	if inputs[0].FrameCount != 3 {
		t.Errorf("expected frame count 3, got %d", inputs[0].FrameCount)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to query stats: %v", err)
	}
	if stats["total_sessions"] != 2 {
		t.Errorf("expected 2 total sessions, got %v", stats["total_sessions"])
	}
	if stats["total_frames"] != 6 {
		t.Errorf("expected 6 total frames, got %v", stats["total_frames"])
	}
}

func TestDatabase_DuplicateSessionRejected(t *testing.T) {
	db := testDB(t)
	snap := testSnapshot(1)
	sess := &Session{ID: "dup", Role: "input", StartedAt: time.Now(), Aggregation: "fingerprints"}

	if err := db.SaveSession(sess, snap); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := db.SaveSession(sess, snap); err == nil {
		t.Error("expected error saving a duplicate session id")
	}
}
