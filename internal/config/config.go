package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	ListenAddr          string
	DataDir             string
	WorkerCount         int
	LogLevel            string
	ShellPath           string
	ConvertBinary       string
	APITokenHash        string // bcrypt hash of the bearer token; empty disables auth
	APIRatePerSec       float64
	APIRateBurst        int
	JobRetentionHours   int
	CleanupIntervalMins int
	AllowedRoot         string // when set, every path in a request must live under it
	MaxRequestBytes     int64
	WebhookURL          string // receives job.completed and job.failed events
	WebhookSecret       string
	DiskMinFreePct      float64 // below this, new jobs are refused
	DBPath              string  // empty means DataDir/overmark.db
}

func Load() *Config {
	return &Config{
		ListenAddr:          envOr("LISTEN_ADDR", ":8080"),
		DataDir:             envOr("DATA_DIR", "./data"),
		WorkerCount:         envPositiveIntOr("WORKER_COUNT", 2),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		ShellPath:           envOr("SHELL_PATH", "/bin/sh"),
		ConvertBinary:       envOr("CONVERT_BINARY", "convert"),
		APITokenHash:        envOr("API_TOKEN_HASH", ""),
		APIRatePerSec:       envFloatOr("API_RATE_PER_SEC", 2),
		APIRateBurst:        envIntOr("API_RATE_BURST", 60),
		JobRetentionHours:   envPositiveIntOr("JOB_RETENTION_HOURS", 7*24),
		CleanupIntervalMins: envPositiveIntOr("CLEANUP_INTERVAL_MINS", 60),
		AllowedRoot:         envOr("ALLOWED_ROOT", ""),
		MaxRequestBytes:     envInt64Or("MAX_REQUEST_BYTES", 1<<20),
		WebhookURL:          envOr("WEBHOOK_URL", ""),
		WebhookSecret:       envOr("WEBHOOK_SECRET", ""),
		DiskMinFreePct:      envFloatOr("DISK_MIN_FREE_PCT", 2),
		DBPath:              envOr("DB_PATH", ""),
	}
}

// DatabasePath is where the job store lives.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "overmark.db")
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envPositiveIntOr is envIntOr for counts and intervals, where zero or a
// negative value falls back to the default.
func envPositiveIntOr(key string, fallback int) int {
	if n := envIntOr(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
