package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/model"
)

// pendingGrace is how long a first attempt may stay in flight before the
// retrier treats its pending row as abandoned.
const pendingGrace = time.Minute

// Retrier re-attempts failed deliveries once their retry time passes.
type Retrier struct {
	Dispatcher *Dispatcher
	Interval   time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

func (r *Retrier) Start(ctx context.Context) {
	if r.Interval <= 0 {
		r.Interval = 30 * time.Second
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)
	slog.Info("webhook retrier started", "interval", r.Interval)
}

func (r *Retrier) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Retrier) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.runOnce(now)
		}
	}
}

func (r *Retrier) runOnce(now time.Time) int {
	deliveries, err := db.ListDueWebhookDeliveries(r.Dispatcher.DB, now, now.Add(-pendingGrace))
	if err != nil {
		slog.Error("webhook retrier: list due deliveries", "error", err)
		return 0
	}
	for i := range deliveries {
		d := &deliveries[i]
		if d.State != model.DeliveryPending {
			d.AttemptNumber++
		}
		r.Dispatcher.attempt(d)
	}
	return len(deliveries)
}
