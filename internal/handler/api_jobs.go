package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/model"
	"github.com/YannKr/overmark/internal/sse"
)

type apiJob struct {
	JobID       string          `json:"job_id"`
	State       string          `json:"state"`
	Family      string          `json:"family"`
	Command     string          `json:"command"`
	PageCount   *int            `json:"page_count,omitempty"`
	Error       string          `json:"error,omitempty"`
	Request     json.RawMessage `json:"request"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   *string         `json:"started_at"`
	CompletedAt *string         `json:"completed_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func jobToAPI(j *model.Job) apiJob {
	return apiJob{
		JobID:       j.ID,
		State:       j.State,
		Family:      j.Family,
		Command:     j.Command,
		PageCount:   j.PageCount,
		Error:       j.ErrorMessage,
		Request:     json.RawMessage(j.Request),
		CreatedAt:   formatTime(j.CreatedAt),
		StartedAt:   formatTimePtr(j.StartedAt),
		CompletedAt: formatTimePtr(j.CompletedAt),
	}
}

// APIJobSubmit - POST /api/v1/jobs
//
// The request is validated by building its command before it is queued.
func (h *Handler) APIJobSubmit(w http.ResponseWriter, r *http.Request) {
	if h.diskStats().Low(h.Cfg.DiskMinFreePct) {
		renderJSONError(w, http.StatusInsufficientStorage, "DISK_FULL", "not enough free disk space to accept jobs")
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	cmd, err := h.buildCommand(r.Context(), req)
	if err != nil {
		renderWatermarkError(w, err)
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to encode request")
		return
	}

	job := &model.Job{
		ID:      uuid.New().String(),
		State:   model.JobPending,
		Request: string(data),
		Family:  cmd.Family,
		Command: cmd.Command,
	}
	if err := db.EnqueueJob(h.DB, job); err != nil {
		slog.Error("enqueue job", "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to enqueue job")
		return
	}

	stored, err := db.GetJob(h.DB, job.ID)
	if err != nil || stored == nil {
		slog.Error("load enqueued job", "job", job.ID, "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load job")
		return
	}
	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	renderJSON(w, http.StatusAccepted, jobToAPI(stored))
}

// APIJobGet - GET /api/v1/jobs/{id}
func (h *Handler) APIJobGet(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	renderJSON(w, http.StatusOK, jobToAPI(job))
}

// APIJobList - GET /api/v1/jobs?state=PENDING&limit=50
func (h *Handler) APIJobList(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	switch state {
	case "", model.JobPending, model.JobRunning, model.JobCompleted, model.JobFailed:
	default:
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown state "+state)
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	jobs, err := db.ListJobs(h.DB, state, limit)
	if err != nil {
		slog.Error("list jobs", "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list jobs")
		return
	}
	out := make([]apiJob, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobToAPI(&jobs[i]))
	}
	renderJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

// APIJobEvents - GET /api/v1/jobs/{id}/events
//
// Streams state changes until the job finishes or the client leaves.
func (h *Handler) APIJobEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	ch, unsub := h.SSE.Subscribe(sse.JobTopic(job.ID))
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The job may have moved on between the lookup and the subscription.
	if current, err := db.GetJob(h.DB, job.ID); err == nil && current != nil {
		job = current
	}
	data, _ := json.Marshal(map[string]string{"job_id": job.ID, "state": job.State})
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	flusher.Flush()
	if job.Finished() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
			if finishedEvent(evt) {
				return
			}
		}
	}
}

func finishedEvent(evt sse.Event) bool {
	var payload struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal([]byte(evt.Data), &payload); err != nil {
		return false
	}
	return payload.State == model.JobCompleted || payload.State == model.JobFailed
}

func (h *Handler) loadJob(w http.ResponseWriter, r *http.Request) (*model.Job, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return nil, false
	}
	job, err := db.GetJob(h.DB, id)
	if err != nil {
		slog.Error("get job", "job", id, "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get job")
		return nil, false
	}
	if job == nil {
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return nil, false
	}
	return job, true
}
