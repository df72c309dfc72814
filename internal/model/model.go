package model

import "time"

// Job states.
const (
	JobPending   = "PENDING"
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

// Job is one queued watermark invocation. Request holds the JSON
// encoded watermark.Request it was submitted with.
type Job struct {
	ID           string
	State        string
	Request      string
	Family       string
	Command      string
	PageCount    *int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Finished reports whether the job reached a terminal state.
func (j *Job) Finished() bool {
	return j.State == JobCompleted || j.State == JobFailed
}

// Webhook delivery states.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliveryExhausted = "exhausted"
)

// WebhookDelivery is one job notification and its delivery attempts.
type WebhookDelivery struct {
	ID                  string
	JobID               string
	EventType           string
	EventID             string
	PayloadJSON         string
	AttemptNumber       int
	State               string
	ResponseStatus      *int
	ResponseBodyPreview string
	ErrorMessage        string
	NextRetryAt         *time.Time
	DeliveredAt         *time.Time
	CreatedAt           time.Time
}
