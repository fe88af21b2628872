package handlers

import (
	"encoding/json"
	"net/http"

	"streamauth/internal/services/recorder"
)

// StatusHandler returns the current recording status: latest input/output
// digests, frame count, and the tampered frame ids so far.
func StatusHandler(rec *recorder.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(rec.Status())
	}
}
