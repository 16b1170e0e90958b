// Package httpapi is the read-only query layer of spec §4.7: it serves
// current status, per-region latency history, and the incident log
// over HTTP, and never writes to the store. Grounded on the teacher's
// httpapi.Server/chi router/cors.AllowAll shape; routes replaced per
// spec §6's table.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/config"
	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

// historyWindow bounds /api/history per spec §4.7: a 12-hour window.
const historyWindow = 12 * time.Hour

type Server struct {
	Logger       *zap.Logger
	Store        store.Store
	Monitors     []domain.MonitorTarget
	Maintenances []domain.Maintenance
	Page         config.PageConfig
	Metrics      *metrics.Query
}

func NewServer(logger *zap.Logger, st store.Store, monitors []domain.MonitorTarget, maintenances []domain.Maintenance, page config.PageConfig) *Server {
	return &Server{Logger: logger, Store: st, Monitors: monitors, Maintenances: maintenances, Page: page}
}

// WithMetrics attaches a Prometheus registry, returning s for chaining.
func (s *Server) WithMetrics(m *metrics.Query) *Server {
	s.Metrics = m
	return s
}

// Router builds the HTTP handler. An empty basicAuthUser disables the
// auth gate; rateLimitRPM/Burst feed the token-bucket middleware
// guarding spec §4.7's publicly exposed read API.
func (s *Server) Router(basicAuthUser, basicAuthPass string, rateLimitRPM, rateLimitBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	var rateLimited *prometheus.CounterVec
	if s.Metrics != nil {
		rateLimited = s.Metrics.RateLimited
	}
	r.Use(middleware.RateLimit(rateLimitRPM, rateLimitBurst, rateLimited))
	if s.Metrics != nil {
		r.Use(middleware.Metrics(s.Metrics.RequestsTotal, s.Metrics.RequestErrors))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.BasicAuth(basicAuthUser, basicAuthPass))
		api.Get("/api/status", s.handleStatus)
		api.Get("/api/data", s.handleData)
		api.Get("/api/history/{id}", s.handleHistory)
		api.Get("/api/history/{id}/all", s.handleHistoryAll)
		api.Get("/api/incidents", s.handleIncidents)
		api.Get("/api/config", s.handleConfig)
		api.Get("/api/badge", s.handleBadge)
	})

	return r
}

func (s *Server) monitor(id string) (domain.MonitorTarget, bool) {
	for _, m := range s.Monitors {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MonitorTarget{}, false
}

// maintenanceActive reports whether monitorID is currently covered by
// any configured maintenance window (spec §6's maintenance match).
func (s *Server) maintenanceActive(monitorID string, now time.Time) bool {
	for _, win := range s.Maintenances {
		if win.Active(now, monitorID) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
