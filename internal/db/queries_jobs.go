package db

import (
	"database/sql"
	"time"

	"github.com/YannKr/overmark/internal/model"
)

const jobColumns = `id, state, request_json, family, command, page_count,
	COALESCE(error_message, ''), created_at, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	j := &model.Job{}
	var createdAt, startedAt, completedAt Time
	var pageCount sql.NullInt64
	err := row.Scan(
		&j.ID, &j.State, &j.Request, &j.Family, &j.Command, &pageCount,
		&j.ErrorMessage, &createdAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = createdAt.Time
	if pageCount.Valid {
		n := int(pageCount.Int64)
		j.PageCount = &n
	}
	j.StartedAt = startedAt.Ptr()
	j.CompletedAt = completedAt.Ptr()
	return j, nil
}

func EnqueueJob(database *sql.DB, j *model.Job) error {
	_, err := database.Exec(
		`INSERT INTO jobs (id, state, request_json, family, command) VALUES (?, 'PENDING', ?, ?, ?)`,
		j.ID, j.Request, j.Family, j.Command,
	)
	return err
}

// ClaimNextJob marks the oldest pending job RUNNING and returns it, or
// nil when the queue is empty.
func ClaimNextJob(database *sql.DB) (*model.Job, error) {
	row := database.QueryRow(`
		UPDATE jobs
		SET state = 'RUNNING', started_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = (
			SELECT id FROM jobs WHERE state = 'PENDING'
			ORDER BY created_at ASC LIMIT 1
		)
		RETURNING ` + jobColumns)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func CompleteJob(database *sql.DB, id, command string) error {
	_, err := database.Exec(
		`UPDATE jobs SET state = 'COMPLETED', command = ?, completed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`, command, id,
	)
	return err
}

func FailJob(database *sql.DB, id, errorMsg string) error {
	_, err := database.Exec(
		`UPDATE jobs SET state = 'FAILED', error_message = ?, completed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`, errorMsg, id,
	)
	return err
}

func SetJobPageCount(database *sql.DB, id string, pages int) error {
	_, err := database.Exec(`UPDATE jobs SET page_count = ? WHERE id = ?`, pages, id)
	return err
}

func GetJob(database *sql.DB, id string) (*model.Job, error) {
	j, err := scanJob(database.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

// ListJobs returns the newest jobs first, optionally filtered by state.
func ListJobs(database *sql.DB, state string, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
		SELECT `+jobColumns+` FROM jobs
		WHERE (? = '' OR state = ?)
		ORDER BY created_at DESC LIMIT ?`, state, state, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// RequeueRunningJobs puts jobs left RUNNING by a previous process back in
// the queue.
func RequeueRunningJobs(database *sql.DB) (int64, error) {
	res, err := database.Exec(`UPDATE jobs SET state = 'PENDING', started_at = NULL WHERE state = 'RUNNING'`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneFinishedJobs deletes completed and failed jobs that finished
// before cutoff.
func PruneFinishedJobs(database *sql.DB, cutoff time.Time) (int64, error) {
	res, err := database.Exec(
		`DELETE FROM jobs WHERE state IN ('COMPLETED', 'FAILED') AND completed_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
