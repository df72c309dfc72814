// Package db is the sqlite-backed store for watermark jobs and webhook
// deliveries.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Options controls how the job store is opened.
type Options struct {
	// Path of the sqlite file. Missing parent directories are created.
	Path string
	// BusyTimeout bounds how long a statement waits on a locked database.
	BusyTimeout time.Duration
}

// Open opens the job store at opts.Path. Pragmas travel in the DSN so the
// driver applies them to every connection it opens.
func Open(opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("open job store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(ON)")

	database, err := sql.Open("sqlite", opts.Path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", opts.Path, err)
	}
	// ClaimNextJob relies on a single writer to hand each job to one worker.
	database.SetMaxOpenConns(1)
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", opts.Path, err)
	}
	return database, nil
}

// timeLayout matches strftime('%Y-%m-%dT%H:%M:%fZ') used by the migrations.
const timeLayout = "2006-01-02T15:04:05.000Z"

var timeLayouts = []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"}

// Time scans a nullable TEXT timestamp column.
type Time struct {
	Time  time.Time
	Valid bool
}

func (t *Time) Scan(src any) error {
	t.Time, t.Valid = time.Time{}, false
	var s string
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	default:
		return fmt.Errorf("db.Time: unsupported type %T", src)
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("db.Time: cannot parse %q", s)
}

// Ptr returns nil for a NULL column.
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
