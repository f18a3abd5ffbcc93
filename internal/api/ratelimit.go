package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter is a per-client token bucket limiter
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientEntry
	rps      float64
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*clientEntry),
		rps:      rps,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether a request from client may proceed
func (l *clientLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[client]
	if !ok {
		l.evictIdle(now)
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops clients not seen for idleTTL; caller holds mu
func (l *clientLimiter) evictIdle(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.limiters, k)
		}
	}
}

// clientKey is the remote host without port
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
