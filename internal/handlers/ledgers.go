package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"streamauth/internal/config"
	"streamauth/internal/database"
	"streamauth/internal/logger"
)

// DownloadLedgerHandler serves a persisted sha log ("input" or "output")
// from the most recently finalized session.
func DownloadLedgerHandler(cfg *config.Config, role string) http.HandlerFunc {
	filename := fmt.Sprintf("%s_sha_log.json", role)
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(cfg.LedgerDirectory, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.Error(w, "Ledger not available: "+filename, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		http.ServeFile(w, r, path)
	}
}

// GetSessionsHandler lists archived sessions, optionally filtered by role.
func GetSessionsHandler(db *database.Database, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			http.Error(w, "Archive not configured", http.StatusServiceUnavailable)
			return
		}

		filter := &database.SessionFilter{Role: r.URL.Query().Get("role"), Limit: 50}
		sessions, err := db.GetSessions(filter)
		if err != nil {
			log.Error("Failed to query sessions: %v", err)
			http.Error(w, "Failed to query sessions", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []database.Session{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessions)
	}
}

// GetStatsHandler returns archive statistics.
func GetStatsHandler(db *database.Database, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			http.Error(w, "Archive not configured", http.StatusServiceUnavailable)
			return
		}

		stats, err := db.GetStats()
		if err != nil {
			log.Error("Failed to query stats: %v", err)
			http.Error(w, "Failed to query stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}
