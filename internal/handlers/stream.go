package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"streamauth/internal/config"
	"streamauth/internal/services/recorder"
)

// VideoStreamHandler serves the live output stream as MJPEG multipart.
// Frames come from the recorder's latest-value slot: a client faster than
// the producer waits for the next sequence number, a slower one skips.
func VideoStreamHandler(rec *recorder.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache")

		ticker := time.NewTicker(30 * time.Millisecond)
		defer ticker.Stop()

		var lastSeq uint64
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}

			frame, seq := rec.LatestFrame()
			if frame == nil || seq == lastSeq {
				continue
			}
			lastSeq = seq

			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// DownloadVideoHandler serves the recorded session video.
func DownloadVideoHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(cfg.VideoPath); os.IsNotExist(err) {
			http.Error(w, "Video not available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename=captured_stream.avi")
		http.ServeFile(w, r, cfg.VideoPath)
	}
}
