package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func TestRateLimit_AllowsThenBlocksThenRefills(t *testing.T) {
	limited := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_rate_limited_total"}, []string{"route"})

	r := chi.NewRouter()
	r.Use(RateLimit(60, 2, limited))
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429 got %d", rr.Code)
	}
	if got := counterValue(t, limited.WithLabelValues("/api/status")); got != 1 {
		t.Fatalf("want 1 rate-limited request recorded, got %v", got)
	}

	time.Sleep(1100 * time.Millisecond)
	rr2 := httptest.NewRecorder()
	r.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusOK {
		t.Fatalf("want 200 after refill got %d", rr2.Code)
	}
}

func TestRateLimit_ZeroDisables(t *testing.T) {
	h := RateLimit(0, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("want disabled limiter to always allow, got %d on request %d", rr.Code, i)
		}
	}
}

func TestLimiter_SweepDropsIdleBuckets(t *testing.T) {
	l := newLimiter(1, 1, time.Minute)
	base := time.Unix(0, 0)

	l.allow("a", base)
	l.allow("b", base)
	if len(l.m) != 2 {
		t.Fatalf("want 2 buckets tracked, got %d", len(l.m))
	}

	// force a sweep well past ttl for bucket "a" but not "b".
	l.swept = base.Add(-2 * time.Minute)
	l.allow("b", base.Add(90*time.Second))

	if _, ok := l.m["a"]; ok {
		t.Fatalf("want idle bucket 'a' swept")
	}
	if _, ok := l.m["b"]; !ok {
		t.Fatalf("want recently used bucket 'b' kept")
	}
}
