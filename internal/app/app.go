package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	overmark "github.com/YannKr/overmark"
	"github.com/YannKr/overmark/internal/cleanup"
	"github.com/YannKr/overmark/internal/config"
	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/diskstat"
	"github.com/YannKr/overmark/internal/handler"
	"github.com/YannKr/overmark/internal/sse"
	"github.com/YannKr/overmark/internal/watermark"
	"github.com/YannKr/overmark/internal/webhook"
	"github.com/YannKr/overmark/internal/worker"
)

// SessionFactory opens sessions that run commands through cfg.ShellPath
// and share tool as their availability check.
func SessionFactory(cfg *config.Config, tool watermark.ToolChecker, logger *slog.Logger) watermark.SessionFactory {
	return func(ctx context.Context, source string) (*watermark.Session, error) {
		return watermark.NewSession(ctx, source,
			watermark.WithRunner(watermark.ShellRunner{Shell: cfg.ShellPath}),
			watermark.WithToolChecker(tool),
			watermark.WithLogger(logger),
		)
	}
}

func Run(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}

	// Open database
	database, err := db.Open(db.Options{Path: cfg.DatabasePath()})
	if err != nil {
		return err
	}
	defer database.Close()

	// Run migrations
	if _, err := db.Migrate(database, overmark.MigrationFS); err != nil {
		return err
	}
	slog.Info("database ready")

	// The tool is probed once; a missing binary keeps the API up so
	// /healthz can report it.
	tool := &watermark.OnceChecker{Checker: watermark.MagickChecker{Binary: cfg.ConvertBinary}}
	if err := tool.Check(ctx); err != nil {
		slog.Warn("image tool unavailable", "binary", cfg.ConvertBinary, "error", err)
	}
	open := SessionFactory(cfg, tool, slog.Default())

	// Start cleanup scheduler
	cleaner := &cleanup.Cleaner{
		DB:        database,
		Retention: time.Duration(cfg.JobRetentionHours) * time.Hour,
		Interval:  time.Duration(cfg.CleanupIntervalMins) * time.Minute,
	}
	cleaner.Start(ctx)
	defer cleaner.Stop()

	// Create SSE hub for job state updates
	sseHub := sse.New()

	// Job notifications
	dispatcher := &webhook.Dispatcher{DB: database, URL: cfg.WebhookURL, Secret: cfg.WebhookSecret}
	defer dispatcher.Wait()
	var notifier worker.Notifier
	if dispatcher.Enabled() {
		notifier = dispatcher
		retrier := &webhook.Retrier{Dispatcher: dispatcher}
		retrier.Start(ctx)
		defer retrier.Stop()
		slog.Info("webhook notifications enabled", "url", cfg.WebhookURL)
	}

	// Start worker pool
	pool := worker.NewPool(database, cfg, sseHub, notifier, open)
	pool.Start(ctx)
	defer pool.Stop()

	apiRL := handler.NewRateLimiter(rate.Limit(cfg.APIRatePerSec), cfg.APIRateBurst)
	defer apiRL.Stop()

	if cfg.APITokenHash == "" {
		slog.Warn("API_TOKEN_HASH not set, API is unauthenticated")
	}

	// Start disk stats cache
	diskCache := diskstat.New(cfg.DataDir, 60*time.Second)
	diskCache.Start()
	defer diskCache.Stop()

	h := handler.New(database, cfg, sseHub, open, tool)
	h.Disk = diskCache
	router := h.Routes(apiRL)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "workers", cfg.WorkerCount)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
