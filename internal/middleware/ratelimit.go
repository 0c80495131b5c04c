package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited wraps the failure of a request that never left the client
// because its context ended before a slot was free.
var ErrRateLimited = errors.New("rate limit wait failed")

type hostLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter paces outgoing requests per backend host. Requests wait for a
// slot instead of failing, and give up when their context ends.
type RateLimiter struct {
	rps   float64
	burst int
	mu    sync.Mutex
	hosts map[string]*hostLimiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}

	return &RateLimiter{
		rps:   rps,
		burst: burst,
		hosts: map[string]*hostLimiter{},
	}
}

// Middleware is a passthrough when rps is not positive.
func (m *RateLimiter) Middleware() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if m.rps <= 0 {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			limiter := m.getLimiter(r.URL.Host)
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
			}
			return next.RoundTrip(r)
		})
	}
}

func (m *RateLimiter) getLimiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.hosts[host]; exists {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	created := &hostLimiter{limiter: rate.NewLimiter(rate.Limit(m.rps), m.burst), lastSeen: time.Now()}
	m.hosts[host] = created
	m.gcLocked()

	return created.limiter
}

func (m *RateLimiter) gcLocked() {
	if len(m.hosts) < 64 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for host, entry := range m.hosts {
		if entry.lastSeen.Before(cutoff) {
			delete(m.hosts, host)
		}
	}
}
