package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "WORKER_COUNT", "API_RATE_PER_SEC", "SHELL_PATH", "ALLOWED_ROOT", "CONVERT_BINARY", "JOB_RETENTION_HOURS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 2.0, cfg.APIRatePerSec)
	assert.Equal(t, "/bin/sh", cfg.ShellPath)
	assert.Equal(t, "convert", cfg.ConvertBinary)
	assert.Equal(t, 168, cfg.JobRetentionHours)
	assert.Empty(t, cfg.AllowedRoot)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("API_RATE_PER_SEC", "0.5")
	t.Setenv("MAX_REQUEST_BYTES", "4096")
	t.Setenv("JOB_RETENTION_HOURS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 0.5, cfg.APIRatePerSec)
	assert.Equal(t, int64(4096), cfg.MaxRequestBytes)
	assert.Equal(t, 168, cfg.JobRetentionHours, "unparsable values fall back")
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestNonPositiveCountsFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("CLEANUP_INTERVAL_MINS", "-5")
	t.Setenv("JOB_RETENTION_HOURS", "0")

	cfg := Load()
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 60, cfg.CleanupIntervalMins)
	assert.Equal(t, 168, cfg.JobRetentionHours)
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/overmark"}
	assert.Equal(t, filepath.Join("/var/lib/overmark", "overmark.db"), cfg.DatabasePath())

	cfg.DBPath = "/tmp/jobs.db"
	assert.Equal(t, "/tmp/jobs.db", cfg.DatabasePath())
}
