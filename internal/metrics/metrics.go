// Package metrics is the Prometheus client_golang registry shared by
// all three processes (spec §4.8's domain-stack table). cmd/api scrapes
// it over HTTP via Handler; cmd/probe and cmd/aggregator exit after one
// tick and can't be scraped, so they log a one-shot summary line instead.
// Grounded on nordcoder-portfolio-Pingerus's runner.go (promauto field
// struct) and obs/metrics_http.go (the /metrics mux wiring).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe counts and times individual checks, one increment per
// checkOne call in internal/probedriver.
type Probe struct {
	ChecksTotal    prometheus.Counter
	ChecksFailed   prometheus.Counter
	ChecksPanicked prometheus.Counter
	CheckDuration  *prometheus.HistogramVec
}

// NewProbe registers the probe driver's counters and histogram.
func NewProbe(region string) *Probe {
	constLabels := prometheus.Labels{"region": region}
	return &Probe{
		ChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "uptime_probe_checks_total",
			Help:        "Checks attempted by this regional probe",
			ConstLabels: constLabels,
		}),
		ChecksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "uptime_probe_checks_failed_total",
			Help:        "Checks that could not be persisted (store errors)",
			ConstLabels: constLabels,
		}),
		ChecksPanicked: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "uptime_probe_checks_panicked_total",
			Help:        "Checks recovered from a panic in the check goroutine",
			ConstLabels: constLabels,
		}),
		CheckDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "uptime_probe_check_duration_seconds",
			Help:        "Wall time of a single monitor check, by status",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"status"}),
	}
}

// Aggregator counts monitor evaluations, incident transitions, and
// notification deliveries, one registry per aggregator process.
type Aggregator struct {
	MonitorsEvaluated prometheus.Counter
	MonitorErrors     prometheus.Counter
	IncidentsOpened   prometheus.Counter
	IncidentsClosed   prometheus.Counter
	Notifications     *prometheus.CounterVec
	TickDuration      prometheus.Histogram
}

// NewAggregator registers the aggregator's counters and histogram.
func NewAggregator() *Aggregator {
	return &Aggregator{
		MonitorsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_aggregator_monitors_evaluated_total",
			Help: "Monitor evaluations across all ticks",
		}),
		MonitorErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_aggregator_monitor_errors_total",
			Help: "Monitor evaluations that errored (store failures)",
		}),
		IncidentsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_aggregator_incidents_opened_total",
			Help: "Incidents opened (a monitor's first down tick)",
		}),
		IncidentsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_aggregator_incidents_closed_total",
			Help: "Incidents closed (a monitor's recovery tick)",
		}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_aggregator_notifications_total",
			Help: "Webhook notifications sent, by kind",
		}, []string{"kind"}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "uptime_aggregator_tick_duration_seconds",
			Help:    "Wall time of one RunOnce pass over every monitor",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Query counts the read-only HTTP API's requests, one registry for the
// life of the cmd/api process.
type Query struct {
	RequestsTotal *prometheus.CounterVec
	RequestErrors *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec
}

// NewQuery registers the query layer's request counters.
func NewQuery() *Query {
	return &Query{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_query_requests_total",
			Help: "HTTP requests served by the query layer, by route",
		}, []string{"route"}),
		RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_query_request_errors_total",
			Help: "HTTP requests that returned a 4xx/5xx, by route and status",
		}, []string{"route", "status"}),
		RateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_query_rate_limited_total",
			Help: "Requests rejected with 429 by the token-bucket limiter, by route",
		}, []string{"route"}),
	}
}

// Handler exposes the default registry's text-format exposition, mounted
// by cmd/api at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
