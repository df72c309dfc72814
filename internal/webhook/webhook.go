// Package webhook notifies an external endpoint when watermark jobs
// finish. Every delivery is recorded and failed ones are retried on a
// backoff schedule.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/model"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>".
const SignatureHeader = "X-Overmark-Signature"

var backoffSchedule = []time.Duration{
	30 * time.Second,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
}

func nextRetryAt(now time.Time, attemptNumber int) *time.Time {
	idx := attemptNumber - 1
	if idx >= len(backoffSchedule) {
		return nil
	}
	t := now.Add(backoffSchedule[idx])
	return &t
}

// Dispatcher posts job events to URL, signed with Secret.
type Dispatcher struct {
	DB     *sql.DB
	URL    string
	Secret string
	Client *http.Client

	inflight sync.WaitGroup
}

type Event struct {
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func (d *Dispatcher) Enabled() bool {
	return d != nil && d.DB != nil && d.URL != ""
}

// Dispatch records the event and attempts the first delivery in the
// background.
func (d *Dispatcher) Dispatch(jobID, eventType string, data any) {
	delivery, err := d.record(jobID, eventType, data)
	if err != nil {
		slog.Error("webhook: record delivery", "job", jobID, "error", err)
		return
	}
	if delivery != nil {
		d.inflight.Add(1)
		go func() {
			defer d.inflight.Done()
			d.attempt(delivery)
		}()
	}
}

// Wait blocks until first attempts started by Dispatch have finished.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.inflight.Wait()
	}
}

func (d *Dispatcher) record(jobID, eventType string, data any) (*model.WebhookDelivery, error) {
	if !d.Enabled() {
		return nil, nil
	}

	eventID := uuid.New().String()
	payload, err := json.Marshal(Event{
		EventType: eventType,
		EventID:   eventID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	now := time.Now()
	delivery := &model.WebhookDelivery{
		ID:            uuid.New().String(),
		JobID:         jobID,
		EventType:     eventType,
		EventID:       eventID,
		PayloadJSON:   string(payload),
		AttemptNumber: 1,
		State:         model.DeliveryPending,
		NextRetryAt:   &now,
	}
	if err := db.CreateWebhookDelivery(d.DB, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (d *Dispatcher) attempt(delivery *model.WebhookDelivery) {
	status, preview, err := d.post([]byte(delivery.PayloadJSON))

	delivery.ResponseStatus = status
	delivery.ResponseBodyPreview = preview

	now := time.Now()
	if err == nil {
		delivery.State = model.DeliveryDelivered
		delivery.NextRetryAt = nil
		delivery.DeliveredAt = &now
		delivery.ErrorMessage = ""
		slog.Info("webhook delivered", "url", d.URL, "event", delivery.EventType, "job", delivery.JobID)
	} else {
		delivery.ErrorMessage = err.Error()
		delivery.NextRetryAt = nextRetryAt(now, delivery.AttemptNumber)
		if delivery.NextRetryAt == nil {
			delivery.State = model.DeliveryExhausted
			slog.Warn("webhook exhausted", "url", d.URL, "event", delivery.EventType, "attempts", delivery.AttemptNumber)
		} else {
			delivery.State = model.DeliveryFailed
			slog.Warn("webhook failed, will retry", "url", d.URL, "event", delivery.EventType,
				"attempt", delivery.AttemptNumber, "next_retry", delivery.NextRetryAt)
		}
	}

	if uerr := db.UpdateWebhookDelivery(d.DB, delivery); uerr != nil {
		slog.Error("webhook: update delivery record", "error", uerr)
	}
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (d *Dispatcher) post(payload []byte) (statusCode *int, preview string, err error) {
	req, err := http.NewRequest(http.MethodPost, d.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "sha256="+Sign(d.Secret, payload))

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	code := resp.StatusCode

	if code >= 400 {
		return &code, string(body), fmt.Errorf("webhook returned status %d", code)
	}
	return &code, string(body), nil
}
