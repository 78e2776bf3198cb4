package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	// Max requests allowed per client within Window. Zero disables limiting.
	Max int
	// Window is the sliding window duration.
	Window time.Duration
}

// clientWindow tracks request timestamps for one client.
type clientWindow struct {
	times []time.Time
}

// rateLimiter is a sliding-window limiter keyed by client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	max     int
	window  time.Duration
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientWindow),
		max:     cfg.Max,
		window:  cfg.Window,
	}
}

// allow records a request for the client and reports whether it is within
// the limit.
func (rl *rateLimiter) allow(client string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw := rl.clients[client]
	if cw == nil {
		cw = &clientWindow{}
		rl.clients[client] = cw
	}

	cutoff := now.Add(-rl.window)
	kept := cw.times[:0]
	for _, t := range cw.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cw.times = kept

	if len(cw.times) >= rl.max {
		return false
	}
	cw.times = append(cw.times, now)
	return true
}

// sweep drops clients with no requests inside the window.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	for client, cw := range rl.clients {
		live := false
		for _, t := range cw.times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.clients, client)
		}
	}
}

// RateLimit limits each client IP to cfg.Max requests per cfg.Window,
// answering 429 above the limit. Idle client records are swept in the
// background until ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.sweep(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				client = r.RemoteAddr
			}
			if !rl.allow(client, time.Now()) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
