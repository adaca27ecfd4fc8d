package httpmiddleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the length of the counting window.
	Window time.Duration
	// KeyFunc derives the limit key from a request. Defaults to the
	// client IP when nil.
	KeyFunc func(*http.Request) string
}

type window struct {
	count int
	reset time.Time
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

// allow counts a request against key and reports whether it is within the
// limit, along with how long until the window resets. Expired windows are
// swept opportunistically, at most once per window length, so the limiter
// needs no background goroutine.
func (l *rateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, w := range l.windows {
			if now.After(w.reset) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.cfg.Window)
	}

	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(l.cfg.Window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.cfg.Max, time.Until(w.reset)
}

// RateLimit returns a middleware enforcing a fixed-window request limit per
// client. Requests over the limit receive 429 with a Retry-After header.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	limiter := &rateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.allow(cfg.KeyFunc(r), time.Now())
			if !ok {
				secs := int(retryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
