package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"streamauth/internal/config"
	"streamauth/internal/database"
	"streamauth/internal/handlers"
	"streamauth/internal/logger"
	"streamauth/internal/middleware"
	"streamauth/internal/services/recorder"
	wshub "streamauth/internal/services/websocket"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(rec *recorder.Recorder, hub *wshub.HubService, db *database.Database, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// API endpoints
	mux.HandleFunc("/api/status", handlers.StatusHandler(rec))
	mux.HandleFunc("/api/record", handlers.StartRecordingHandler(rec, cfg, logger))
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(hub, logger))
	mux.HandleFunc("/api/ledger/input", handlers.DownloadLedgerHandler(cfg, "input"))
	mux.HandleFunc("/api/ledger/output", handlers.DownloadLedgerHandler(cfg, "output"))
	mux.HandleFunc("/api/compare", handlers.CompareLedgersHandler(cfg, logger))
	mux.HandleFunc("/api/sessions", handlers.GetSessionsHandler(db, logger))
	mux.HandleFunc("/api/sessions/stats", handlers.GetStatsHandler(db, logger))

	// Live stream and recorded video
	mux.HandleFunc("/video", handlers.VideoStreamHandler(rec))
	mux.HandleFunc("/download/video", handlers.DownloadVideoHandler(cfg))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
