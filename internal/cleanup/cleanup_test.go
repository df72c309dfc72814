package cleanup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	overmark "github.com/YannKr/overmark"
	"github.com/YannKr/overmark/internal/db"
	"github.com/YannKr/overmark/internal/model"
)

func TestRunOncePrunesOnlyExpiredJobs(t *testing.T) {
	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	defer database.Close()
	_, err = db.Migrate(database, overmark.MigrationFS)
	require.NoError(t, err)

	for _, id := range []string{"done", "pending"} {
		require.NoError(t, db.EnqueueJob(database, &model.Job{ID: id, Request: "{}"}))
	}
	require.NoError(t, db.CompleteJob(database, "done", ""))

	c := &Cleaner{DB: database, Retention: time.Hour, Interval: time.Hour}
	assert.Zero(t, c.runOnce(time.Now()))
	assert.EqualValues(t, 1, c.runOnce(time.Now().Add(2*time.Hour)))

	j, err := db.GetJob(database, "pending")
	require.NoError(t, err)
	assert.NotNil(t, j)
	j, err = db.GetJob(database, "done")
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestStartStop(t *testing.T) {
	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	defer database.Close()
	_, err = db.Migrate(database, overmark.MigrationFS)
	require.NoError(t, err)

	c := &Cleaner{DB: database, Retention: time.Hour, Interval: time.Minute}
	c.Start(context.Background())
	c.Stop()
}

func TestStartWithoutIntervalUsesDefault(t *testing.T) {
	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	defer database.Close()
	_, err = db.Migrate(database, overmark.MigrationFS)
	require.NoError(t, err)

	for _, interval := range []time.Duration{0, -time.Minute} {
		c := &Cleaner{DB: database, Retention: time.Hour, Interval: interval}
		require.NotPanics(t, func() { c.Start(context.Background()) })
		c.Stop()
		assert.Equal(t, defaultInterval, c.Interval)
	}
}
