// Package diskstat keeps a cached view of free space on the data volume.
package diskstat

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Stats is a point-in-time snapshot of disk usage.
type Stats struct {
	TotalBytes uint64
	FreeBytes  uint64
	CapturedAt time.Time
}

// PctFree returns the percentage of disk space that is free (0-100).
func (s Stats) PctFree() float64 {
	if s.TotalBytes == 0 {
		return 100
	}
	return float64(s.FreeBytes) / float64(s.TotalBytes) * 100
}

// Low reports whether free space is known and below minPct.
func (s Stats) Low(minPct float64) bool {
	return !s.CapturedAt.IsZero() && minPct > 0 && s.PctFree() < minPct
}

// Cache is a goroutine-safe cached disk stats value, refreshed periodically.
type Cache struct {
	mu       sync.RWMutex
	stats    Stats
	dir      string
	ttl      time.Duration
	statfs   func(path string) (total, free uint64, err error)
	stop     chan struct{}
	stopOnce sync.Once
}

func New(dir string, ttl time.Duration) *Cache {
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		statfs: statFS,
		stop:   make(chan struct{}),
	}
}

// Start takes a first reading and begins background polling.
func (c *Cache) Start() {
	c.Refresh()
	go func() {
		t := time.NewTicker(c.ttl)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				c.Refresh()
			}
		}
	}()
}

func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the latest cached stats. CapturedAt is zero until the first
// successful reading.
func (c *Cache) Get() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Refresh forces an immediate update. A failed reading keeps the
// previous values.
func (c *Cache) Refresh() {
	total, free, err := c.statfs(c.dir)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.stats = Stats{TotalBytes: total, FreeBytes: free, CapturedAt: time.Now()}
	c.mu.Unlock()
}

func statFS(path string) (total, free uint64, err error) {
	var stat unix.Statfs_t
	if err = unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return bsize * stat.Blocks, bsize * stat.Bavail, nil
}
