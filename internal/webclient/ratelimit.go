package webclient

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minLimiterIdle is the shortest time a host limiter is kept unused.
const minLimiterIdle = time.Minute

type hostLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

// hostLimiters keeps one token bucket per host. Buckets unused for longer
// than idleAfter are dropped; by then they have refilled, so a new bucket
// behaves the same.
type hostLimiters struct {
	mu        sync.Mutex
	rps       float64
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
	byKey     map[string]*hostLimiter
}

func newHostLimiters(rps float64, burst int) *hostLimiters {
	if burst <= 0 {
		burst = 1
	}
	idle := minLimiterIdle
	if rps > 0 {
		idle = max(idle, time.Duration(float64(burst)/rps*float64(time.Second)))
	}
	return &hostLimiters{
		rps:       rps,
		burst:     burst,
		idleAfter: idle,
		now:       time.Now,
		byKey:     make(map[string]*hostLimiter),
	}
}

func (h *hostLimiters) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if now.Sub(h.lastSweep) >= h.idleAfter {
		h.sweepLocked(now)
	}

	l, ok := h.byKey[host]
	if !ok {
		l = &hostLimiter{lim: rate.NewLimiter(rate.Limit(h.rps), h.burst)}
		h.byKey[host] = l
	}
	l.lastUsed = now
	return l.lim
}

func (h *hostLimiters) sweepLocked(now time.Time) {
	for host, l := range h.byKey {
		if now.Sub(l.lastUsed) > h.idleAfter {
			delete(h.byKey, host)
		}
	}
	h.lastSweep = now
}

func (h *hostLimiters) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byKey)
}

// wait blocks until the host of rawURL may be hit again. Disabled when rps <= 0.
func (h *hostLimiters) wait(ctx context.Context, rawURL string) error {
	if h == nil || h.rps <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return h.get(strings.ToLower(u.Host)).Wait(ctx)
}
