package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/YannKr/overmark/internal/config"
	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/docinfo"
	"github.com/YannKr/overmark/internal/model"
	"github.com/YannKr/overmark/internal/sse"
	"github.com/YannKr/overmark/internal/watermark"
)

// ErrCommandFailed is recorded when the watermark tool exits non-zero or
// prints output.
var ErrCommandFailed = errors.New("watermark command failed")

// Notifier is told about every finished job.
type Notifier interface {
	Dispatch(jobID, eventType string, data any)
}

type Pool struct {
	database  *sql.DB
	cfg       *config.Config
	sseHub    *sse.Hub
	notifier  Notifier
	open      watermark.SessionFactory
	pageCount func(path string) (int, error)
	poll      time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewPool(database *sql.DB, cfg *config.Config, sseHub *sse.Hub, notifier Notifier, open watermark.SessionFactory) *Pool {
	return &Pool{
		database:  database,
		cfg:       cfg,
		sseHub:    sseHub,
		notifier:  notifier,
		open:      open,
		pageCount: docinfo.PageCount,
		poll:      2 * time.Second,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	if n, err := db.RequeueRunningJobs(p.database); err != nil {
		slog.Error("requeue interrupted jobs", "error", err)
	} else if n > 0 {
		slog.Info("requeued interrupted jobs", "count", n)
	}
	workers := p.workers()
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	slog.Info("worker pool started", "workers", workers)
}

// workers is the configured worker count, at least one.
func (p *Pool) workers() int {
	if p.cfg.WorkerCount < 1 {
		return 1
	}
	return p.cfg.WorkerCount
}

func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	slog.Info("worker pool stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := p.processNext(ctx, id)
		if err != nil {
			slog.Error("claim job", "worker", id, "error", err)
			sleep(ctx, p.poll)
			continue
		}
		if !claimed {
			sleep(ctx, p.poll)
		}
	}
}

// processNext claims and runs one job. It reports false when the queue
// was empty.
func (p *Pool) processNext(ctx context.Context, worker int) (bool, error) {
	job, err := db.ClaimNextJob(p.database)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	slog.Info("processing job", "worker", worker, "job", job.ID, "family", job.Family)
	p.publishState(job.ID, model.JobRunning, "")

	command, processErr := p.processJob(ctx, job)
	if processErr != nil {
		slog.Error("job failed", "job", job.ID, "error", processErr)
		if err := db.FailJob(p.database, job.ID, processErr.Error()); err != nil {
			slog.Error("record job failure", "job", job.ID, "error", err)
		}
		p.publishState(job.ID, model.JobFailed, processErr.Error())
		p.notify(job.ID, "job.failed")
		return true, nil
	}

	if err := db.CompleteJob(p.database, job.ID, command); err != nil {
		slog.Error("record job completion", "job", job.ID, "error", err)
	}
	slog.Info("job completed", "job", job.ID)
	p.publishState(job.ID, model.JobCompleted, "")
	p.notify(job.ID, "job.completed")
	return true, nil
}

func (p *Pool) processJob(ctx context.Context, job *model.Job) (string, error) {
	var req watermark.Request
	if err := json.Unmarshal([]byte(job.Request), &req); err != nil {
		return "", fmt.Errorf("decode request: %w", err)
	}

	session, err := req.Open(ctx, p.open)
	if err != nil {
		return "", err
	}
	command, err := session.Command(req.Output)
	if err != nil {
		return "", err
	}

	ok, err := session.Write(ctx, req.Output)
	if err != nil {
		return command, err
	}
	if !ok {
		return command, ErrCommandFailed
	}

	if session.Family() == watermark.FamilyDocument {
		dest := req.Output
		if dest == "" {
			dest = req.Source
		}
		if pages, err := p.pageCount(dest); err != nil {
			slog.Warn("count document pages", "job", job.ID, "path", dest, "error", err)
		} else if err := db.SetJobPageCount(p.database, job.ID, pages); err != nil {
			slog.Warn("record page count", "job", job.ID, "error", err)
		}
	}
	return command, nil
}

type stateEvent struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func (p *Pool) publishState(jobID, state, errMsg string) {
	if p.sseHub == nil {
		return
	}
	err := p.sseHub.PublishJSON(sse.JobTopic(jobID), "state", stateEvent{JobID: jobID, State: state, Error: errMsg})
	if err != nil {
		slog.Warn("publish job state", "job", jobID, "error", err)
	}
}

type jobEvent struct {
	JobID     string `json:"job_id"`
	State     string `json:"state"`
	Family    string `json:"family"`
	Command   string `json:"command"`
	PageCount *int   `json:"page_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (p *Pool) notify(jobID, eventType string) {
	if p.notifier == nil {
		return
	}
	job, err := db.GetJob(p.database, jobID)
	if err != nil || job == nil {
		slog.Warn("load job for notification", "job", jobID, "error", err)
		return
	}
	p.notifier.Dispatch(job.ID, eventType, jobEvent{
		JobID:     job.ID,
		State:     job.State,
		Family:    job.Family,
		Command:   job.Command,
		PageCount: job.PageCount,
		Error:     job.ErrorMessage,
	})
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
