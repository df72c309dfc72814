package db

import (
	"database/sql"
	"time"

	"github.com/YannKr/overmark/internal/model"
)

func CreateWebhookDelivery(database *sql.DB, d *model.WebhookDelivery) error {
	_, err := database.Exec(`
		INSERT INTO webhook_deliveries (id, job_id, event_type, event_id, payload_json, attempt_number, state, next_retry_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.JobID, d.EventType, d.EventID, d.PayloadJSON, d.AttemptNumber, d.State, formatTimePtr(d.NextRetryAt),
	)
	return err
}

func UpdateWebhookDelivery(database *sql.DB, d *model.WebhookDelivery) error {
	var status any
	if d.ResponseStatus != nil {
		status = *d.ResponseStatus
	}
	_, err := database.Exec(`
		UPDATE webhook_deliveries
		SET attempt_number = ?, state = ?, response_status = ?, response_body_preview = ?,
		    error_message = ?, next_retry_at = ?, delivered_at = ?
		WHERE id = ?`,
		d.AttemptNumber, d.State, status, d.ResponseBodyPreview,
		d.ErrorMessage, formatTimePtr(d.NextRetryAt), formatTimePtr(d.DeliveredAt), d.ID,
	)
	return err
}

const deliveryColumns = `id, job_id, event_type, event_id, payload_json, attempt_number, state,
	response_status, response_body_preview, error_message, next_retry_at, delivered_at, created_at`

func scanDelivery(row rowScanner) (*model.WebhookDelivery, error) {
	d := &model.WebhookDelivery{}
	var status sql.NullInt64
	var nextRetry, delivered, createdAt Time
	err := row.Scan(&d.ID, &d.JobID, &d.EventType, &d.EventID, &d.PayloadJSON, &d.AttemptNumber, &d.State,
		&status, &d.ResponseBodyPreview, &d.ErrorMessage, &nextRetry, &delivered, &createdAt)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = createdAt.Time
	if status.Valid {
		code := int(status.Int64)
		d.ResponseStatus = &code
	}
	d.NextRetryAt = nextRetry.Ptr()
	d.DeliveredAt = delivered.Ptr()
	return d, nil
}

func GetWebhookDelivery(database *sql.DB, id string) (*model.WebhookDelivery, error) {
	d, err := scanDelivery(database.QueryRow(`SELECT `+deliveryColumns+` FROM webhook_deliveries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// ListDueWebhookDeliveries returns failed deliveries whose retry time has
// passed, plus pending deliveries recorded before pendingBefore whose first
// attempt never finished.
func ListDueWebhookDeliveries(database *sql.DB, now, pendingBefore time.Time) ([]model.WebhookDelivery, error) {
	rows, err := database.Query(`
		SELECT `+deliveryColumns+` FROM webhook_deliveries
		WHERE next_retry_at IS NOT NULL
		  AND ((state = 'failed' AND next_retry_at <= ?) OR (state = 'pending' AND next_retry_at <= ?))
		ORDER BY next_retry_at ASC LIMIT 100`, formatTime(now), formatTime(pendingBefore))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func PruneOldWebhookDeliveries(database *sql.DB, cutoff time.Time) (int64, error) {
	res, err := database.Exec(
		`DELETE FROM webhook_deliveries WHERE state IN ('delivered', 'exhausted') AND created_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
