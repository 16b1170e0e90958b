package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// tokenBucket is a per-client-IP bucket: max tokens = burst, refilled at
// rate tokens/sec since the last request.
type tokenBucket struct {
	tokens float64
	last   time.Time
}

// limiter guards the publicly exposed read API (spec §4.7) from a
// single caller hammering /api/history or /api/data. Buckets older
// than ttl are swept on each allow() call so a long-running cmd/api
// process serving many distinct IPs doesn't grow the map forever.
type limiter struct {
	rate  float64 // tokens per second
	burst float64
	ttl   time.Duration
	mu    sync.Mutex
	m     map[string]*tokenBucket
	swept time.Time
}

func newLimiter(rps float64, burst int, ttl time.Duration) *limiter {
	return &limiter{
		rate:  rps,
		burst: float64(burst),
		ttl:   ttl,
		m:     make(map[string]*tokenBucket),
	}
}

func (l *limiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	tb := l.m[key]
	if tb == nil {
		tb = &tokenBucket{tokens: l.burst, last: now}
		l.m[key] = tb
	}
	elapsed := now.Sub(tb.last).Seconds()
	tb.tokens = minFloat(l.burst, tb.tokens+elapsed*l.rate)
	tb.last = now

	allowed := tb.tokens >= 1.0
	if allowed {
		tb.tokens -= 1.0
	}

	if now.Sub(l.swept) >= l.ttl {
		l.sweepLocked(now)
	}
	return allowed
}

// sweepLocked drops buckets idle for longer than ttl. Caller holds l.mu.
func (l *limiter) sweepLocked(now time.Time) {
	for key, tb := range l.m {
		if now.Sub(tb.last) >= l.ttl {
			delete(l.m, key)
		}
	}
	l.swept = now
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RateLimit rate-limits the query API by client IP, token-bucket style.
// reqPerMin<=0 disables it entirely (used by the local/dev config).
// limited, if non-nil, counts 429s by request path: RateLimit runs
// ahead of chi's route matching (it can't call next to find out which
// pattern matched without letting the request through), so the label
// is the raw path rather than the normalized route pattern Metrics uses.
func RateLimit(reqPerMin, burst int, limited *prometheus.CounterVec) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	rps := float64(reqPerMin) / 60.0
	l := newLimiter(rps, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r), time.Now()) {
				if limited != nil {
					limited.WithLabelValues(r.URL.Path).Inc()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
