package handler

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (v *visitor) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *visitor) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// RateLimiter tracks per-client token buckets for the API.
type RateLimiter struct {
	visitors sync.Map
	rate     rate.Limit
	burst    int
	idle     time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows r requests per second per client with the given
// burst. A background goroutine evicts clients idle for 10 minutes.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:  r,
		burst: burst,
		idle:  10 * time.Minute,
		done:  make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()
	v, loaded := rl.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: now})
	vis := v.(*visitor)
	if loaded {
		vis.touch(now)
	}
	return vis.limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.evict(now)
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) int {
	n := 0
	rl.visitors.Range(func(key, value any) bool {
		if value.(*visitor).idleSince(now) > rl.idle {
			rl.visitors.Delete(key)
			n++
		}
		return true
	})
	return n
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Middleware rate-limits by client address. It expects chi's RealIP
// middleware to have already rewritten RemoteAddr.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			renderJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) retryAfter() int {
	if rl.rate <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.rate)))
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
