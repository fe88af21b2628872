package app

import (
	"fmt"
	"net/http"

	"streamauth/internal/config"
	"streamauth/internal/database"
	"streamauth/internal/logger"
	"streamauth/internal/routes"
	"streamauth/internal/services/recorder"
	wshub "streamauth/internal/services/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *database.Database
	hub      *wshub.HubService
	recorder *recorder.Recorder
}

func NewApp() *App {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		// Sessions still record and persist their JSON ledgers without the archive.
		log.Warning("Session archive unavailable: %v", err)
		db = nil
	}

	hub := wshub.NewHubService(log)
	rec := recorder.New(cfg, log, hub, db)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		hub:      hub,
		recorder: rec,
	}
}

func (a *App) Run() error {
	go a.hub.Run()

	router := routes.SetupRoutes(a.recorder, a.hub, a.db, a.config, a.logger)

	fmt.Printf("🚀 Stream Authenticator\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎞  Grid: %dx%d, fingerprint mode: %s\n", a.config.GridSize, a.config.GridSize, a.config.FingerprintMode)
	fmt.Printf("📁 Ledgers: %s\n", a.config.LedgerDirectory)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
