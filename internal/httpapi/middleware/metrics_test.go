package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetrics_RecordsRouteAndErrorCounters(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_requests_total"}, []string{"route"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_request_errors_total"}, []string{"route", "status"})

	r := chi.NewRouter()
	r.Use(Metrics(requests, errs))
	r.Get("/api/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/history/m1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := counterValue(t, requests.WithLabelValues("/api/history/{id}")); got != 1 {
		t.Fatalf("want 1 request recorded under the route pattern, got %v", got)
	}
	if got := counterValue(t, errs.WithLabelValues("/api/history/{id}", "Not Found")); got != 1 {
		t.Fatalf("want 1 error recorded, got %v", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
