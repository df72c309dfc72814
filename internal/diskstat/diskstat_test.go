package diskstat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPctFree(t *testing.T) {
	assert.Equal(t, 100.0, Stats{}.PctFree())
	assert.Equal(t, 25.0, Stats{TotalBytes: 400, FreeBytes: 100}.PctFree())
}

func TestLow(t *testing.T) {
	now := time.Now()
	assert.False(t, Stats{TotalBytes: 100, FreeBytes: 1}.Low(5), "no reading yet")
	assert.True(t, Stats{TotalBytes: 100, FreeBytes: 1, CapturedAt: now}.Low(5))
	assert.False(t, Stats{TotalBytes: 100, FreeBytes: 50, CapturedAt: now}.Low(5))
	assert.False(t, Stats{TotalBytes: 100, FreeBytes: 1, CapturedAt: now}.Low(0), "check disabled")
}

func TestRefreshKeepsLastGoodReading(t *testing.T) {
	c := New("/data", time.Minute)
	c.statfs = func(string) (uint64, uint64, error) { return 1000, 250, nil }
	c.Refresh()
	assert.Equal(t, uint64(250), c.Get().FreeBytes)

	c.statfs = func(string) (uint64, uint64, error) { return 0, 0, errors.New("gone") }
	c.Refresh()
	assert.Equal(t, uint64(250), c.Get().FreeBytes)
}

func TestStartReadsRealFilesystem(t *testing.T) {
	c := New(t.TempDir(), time.Hour)
	c.Start()
	defer c.Stop()
	s := c.Get()
	assert.False(t, s.CapturedAt.IsZero())
	assert.NotZero(t, s.TotalBytes)
	c.Stop()
}

func TestNilCache(t *testing.T) {
	var c *Cache
	assert.True(t, c.Get().CapturedAt.IsZero())
}
