package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"streamauth/internal/config"
	"streamauth/internal/logger"
	"streamauth/internal/services/recorder"
)

// StartRecordingHandler starts a recording session. Duration comes from the
// optional ?seconds= query parameter, defaulting to the configured session
// length. Responds 409 while a session is already active.
func StartRecordingHandler(rec *recorder.Recorder, cfg *config.Config, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		seconds := cfg.RecordSeconds
		if v := r.URL.Query().Get("seconds"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				http.Error(w, "Invalid seconds parameter", http.StatusBadRequest)
				return
			}
			seconds = parsed
		}

		if err := rec.Start(time.Duration(seconds) * time.Second); err != nil {
			if errors.Is(err, recorder.ErrSessionActive) {
				http.Error(w, "Recording already in progress", http.StatusConflict)
				return
			}
			log.Error("Failed to start recording: %v", err)
			http.Error(w, "Failed to start recording", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("Recording started for %d seconds", seconds),
		})
	}
}
