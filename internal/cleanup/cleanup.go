package cleanup

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/YannKr/overmark/internal/db"
)

// deliveryRetention is how long settled webhook deliveries are kept.
const deliveryRetention = 90 * 24 * time.Hour

const defaultInterval = time.Hour

// Cleaner periodically deletes finished jobs older than Retention and
// settled webhook deliveries.
type Cleaner struct {
	DB        *sql.DB
	Retention time.Duration
	Interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func (c *Cleaner) Start(ctx context.Context) {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx)
	slog.Info("cleanup scheduler started", "interval", c.Interval, "retention", c.Retention)
}

func (c *Cleaner) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	slog.Info("cleanup scheduler stopped")
}

func (c *Cleaner) loop(ctx context.Context) {
	defer close(c.done)

	c.runOnce(time.Now())

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.runOnce(now)
		}
	}
}

func (c *Cleaner) runOnce(now time.Time) int64 {
	if d, err := db.PruneOldWebhookDeliveries(c.DB, now.Add(-deliveryRetention)); err != nil {
		slog.Error("cleanup: prune webhook deliveries", "error", err)
	} else if d > 0 {
		slog.Info("cleanup: pruned old webhook deliveries", "count", d)
	}

	n, err := db.PruneFinishedJobs(c.DB, now.Add(-c.Retention))
	if err != nil {
		slog.Error("cleanup: prune finished jobs", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("cleanup: pruned finished jobs", "count", n)
	}
	return n
}
