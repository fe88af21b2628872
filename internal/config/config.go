package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port             int
	Password         string
	CameraID         int
	FrameWidth       int
	FrameHeight      int
	RecordSeconds    int     // Session duration in seconds (duration, not frame count, ends a session)
	FrameIntervalMs  int     // Target producer interval between frames
	GridSize         int     // Fingerprint grid dimension (grid_size² cells)
	FingerprintMode  string  // "sum" or "conditioned"
	AggregationMode  string  // "fingerprints" or "digests" for the combined digest
	TamperEveryN     int     // Inject a transform into every Nth output frame (0 disables)
	TamperMarkers    bool    // Draw visual markers on tampered frames
	KeepFingerprints bool    // Persist raw fingerprints next to digests
	Tolerance        int     // Offline per-cell fingerprint tolerance
	ThresholdRatio   float64 // Offline differing/matched ratio for TAMPERED
	LedgerDirectory  string
	VideoPath        string
	DatabasePath     string
	LogDirectory     string
}

func Load() *Config {
	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		Password:         getEnv("PASSWORD", "authenticator"),
		CameraID:         getEnvAsInt("CAMERA_ID", 0),
		FrameWidth:       getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:      getEnvAsInt("FRAME_HEIGHT", 480),
		RecordSeconds:    getEnvAsInt("RECORD_SECONDS", 30),
		FrameIntervalMs:  getEnvAsInt("FRAME_INTERVAL_MS", 50),
		GridSize:         getEnvAsInt("GRID_SIZE", 3),
		FingerprintMode:  getEnv("FINGERPRINT_MODE", "sum"),
		AggregationMode:  getEnv("AGGREGATION_MODE", "fingerprints"),
		TamperEveryN:     getEnvAsInt("TAMPER_EVERY_N", 5), // Tamper injection demo: every 5th frame
		TamperMarkers:    getEnvAsBool("TAMPER_MARKERS", true),
		KeepFingerprints: getEnvAsBool("KEEP_FINGERPRINTS", true),
		Tolerance:        getEnvAsInt("TOLERANCE", 10),
		ThresholdRatio:   getEnvAsFloat("THRESHOLD_RATIO", 0.1),
		LedgerDirectory:  getEnv("LEDGER_DIR", filepath.Join(".", "ledgers")),
		VideoPath:        getEnv("VIDEO_PATH", filepath.Join(".", "captured_stream.avi")),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "sessions.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
