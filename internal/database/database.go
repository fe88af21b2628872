package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"streamauth/internal/ledger"
)

// Session represents a finalized recording session in the database.
// Role distinguishes the input and output ledgers of one capture pass
// (or the single ledger of an independently analyzed video).
type Session struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	StartedAt      time.Time `json:"started_at"`
	FrameCount     int       `json:"frame_count"`
	CombinedDigest string    `json:"combined_digest"`
	Aggregation    string    `json:"aggregation"`
}

// SessionFilter contains filtering options for querying sessions.
type SessionFilter struct {
	Role   string
	Limit  int
	Offset int
}

// Database archives finalized frame ledgers in SQLite.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates and initializes a new SQLite database.
func New(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	database := &Database{db: db}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		frame_count INTEGER NOT NULL,
		combined_digest TEXT NOT NULL,
		aggregation TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS frames (
		session_id TEXT NOT NULL,
		frame_id INTEGER NOT NULL,
		digest TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		fingerprint TEXT,
		PRIMARY KEY (session_id, frame_id),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_role ON sessions(role);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// SaveSession archives a finalized snapshot together with its session
// metadata in one transaction.
func (d *Database) SaveSession(sess *Session, snap ledger.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, role, started_at, frame_count, combined_digest, aggregation)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Role, sess.StartedAt, snap.Len(), sess.CombinedDigest, sess.Aggregation)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO frames (session_id, frame_id, digest, timestamp, fingerprint)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare frame insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range snap.Records() {
		var fp interface{}
		if rec.Fingerprint != nil {
			encoded, err := json.Marshal(rec.Fingerprint)
			if err != nil {
				return fmt.Errorf("failed to encode fingerprint: %w", err)
			}
			fp = string(encoded)
		}
		if _, err := stmt.Exec(sess.ID, rec.FrameID, rec.Digest, rec.Timestamp, fp); err != nil {
			return fmt.Errorf("failed to insert frame %d: %w", rec.FrameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadSnapshot reads a session's frames back into a ledger snapshot.
func (d *Database) LoadSnapshot(sessionID string) (ledger.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT frame_id, digest, timestamp, fingerprint
		FROM frames WHERE session_id = ? ORDER BY frame_id
	`, sessionID)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var records []ledger.Record
	for rows.Next() {
		var rec ledger.Record
		var fp sql.NullString
		if err := rows.Scan(&rec.FrameID, &rec.Digest, &rec.Timestamp, &fp); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("failed to scan frame: %w", err)
		}
		if fp.Valid {
			if err := json.Unmarshal([]byte(fp.String), &rec.Fingerprint); err != nil {
				return ledger.Snapshot{}, fmt.Errorf("failed to decode fingerprint for frame %d: %w", rec.FrameID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("failed to read frames: %w", err)
	}
	if len(records) == 0 {
		return ledger.Snapshot{}, fmt.Errorf("session %s not found or empty", sessionID)
	}

	return ledger.SnapshotOf(records), nil
}

// GetSessions retrieves sessions based on filter criteria, newest first.
func (d *Database) GetSessions(filter *SessionFilter) ([]Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `
		SELECT id, role, started_at, frame_count, combined_digest, aggregation
		FROM sessions
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, filter.Role)
	}

	query += " ORDER BY started_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		err := rows.Scan(&sess.ID, &sess.Role, &sess.StartedAt, &sess.FrameCount, &sess.CombinedDigest, &sess.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// GetStats returns overall archive statistics.
func (d *Database) GetStats() (map[string]interface{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make(map[string]interface{})

	var totalSessions, totalFrames int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&totalSessions); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM frames").Scan(&totalFrames); err != nil {
		return nil, fmt.Errorf("failed to count frames: %w", err)
	}
	stats["total_sessions"] = totalSessions
	stats["total_frames"] = totalFrames

	rows, err := d.db.Query("SELECT role, COUNT(*) FROM sessions GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("failed to count per role: %w", err)
	}
	defer rows.Close()

	perRole := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		perRole[role] = count
	}
	stats["per_role"] = perRole

	return stats, rows.Err()
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
