package store

import (
	"context"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

// Store is the central data store port. Ownership follows spec §3:
// probes exclusively write CHECK#/LATENCY# records, the aggregator
// exclusively writes STATE#/INCIDENT#/STATE#GLOBAL. Both sides read
// through the same interface.
type Store interface {
	// PutCheck writes a single probe outcome. Owned by probes.
	PutCheck(ctx context.Context, cr domain.CheckResult) error
	// RecentChecks returns CHECK# records for a monitor with
	// timestamp_ms > sinceMS, ascending by (timestamp, region).
	RecentChecks(ctx context.Context, monitorID string, sinceMS int64) ([]domain.CheckResult, error)

	// PutLatency writes a single latency history point. Owned by probes.
	PutLatency(ctx context.Context, lp domain.LatencyPoint) error
	// LatencyHistory returns LATENCY# points for (monitorID, region)
	// with timestamp_ms > sinceMS, ascending by time.
	LatencyHistory(ctx context.Context, monitorID, region string, sinceMS int64) ([]domain.LatencyPoint, error)

	// GetState reads the current MonitorState, or nil if none yet.
	GetState(ctx context.Context, monitorID string) (*domain.MonitorState, error)
	// PutState overwrites the current MonitorState. Owned by the aggregator.
	PutState(ctx context.Context, state domain.MonitorState) error
	// ListStates enumerates every STATE# record. Acceptable scan per §4.4.
	ListStates(ctx context.Context) ([]domain.MonitorState, error)

	// GetOpenIncident returns the most recent incident lacking end_ms,
	// or nil if there is none.
	GetOpenIncident(ctx context.Context, monitorID string) (*domain.Incident, error)
	// GetIncident returns the incident keyed by (monitorID, startMS), or
	// nil if it doesn't exist (e.g. its TTL expired).
	GetIncident(ctx context.Context, monitorID string, startMS int64) (*domain.Incident, error)
	// PutIncident upserts an incident. Owned by the aggregator.
	PutIncident(ctx context.Context, inc domain.Incident) error
	// ListIncidents returns every incident for a monitor, descending by
	// start time. MemoryStore treats monitorID "" as all monitors;
	// DynamoStore returns an error for "" and does not list across
	// monitors.
	ListIncidents(ctx context.Context, monitorID string) ([]domain.Incident, error)

	// GetGlobalSummary reads STATE#GLOBAL/SUMMARY, or nil if unset.
	GetGlobalSummary(ctx context.Context) (*domain.GlobalSummary, error)
	// PutGlobalSummary overwrites STATE#GLOBAL/SUMMARY.
	PutGlobalSummary(ctx context.Context, s domain.GlobalSummary) error
}
