package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// statusRecorder captures the response code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Metrics records one request per route (chi's matched pattern, so
// "/api/history/{id}" rather than every distinct id) into requests and,
// on a 4xx/5xx, into errors as well.
func Metrics(requests *prometheus.CounterVec, errors *prometheus.CounterVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			requests.WithLabelValues(route).Inc()
			if rec.status >= 400 {
				errors.WithLabelValues(route, http.StatusText(rec.status)).Inc()
			}
		})
	}
}
