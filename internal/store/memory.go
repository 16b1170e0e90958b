package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

// MemoryStore is an in-process Store, grounded on the teacher's
// repo/memory.Store: a sync.RWMutex-guarded set of maps, no external
// dependency. It backs unit tests and local runs without AWS
// credentials, and honors the same TTLs as the DynamoDB-backed store by
// filtering expired rows out at read time.
type MemoryStore struct {
	mu sync.RWMutex

	checks    map[string][]checkRow
	latencies map[string][]latencyRow
	states    map[string]domain.MonitorState
	incidents map[string][]domain.Incident
	global    *domain.GlobalSummary
}

type checkRow struct {
	result    domain.CheckResult
	expiresAt time.Time
}

type latencyRow struct {
	point     domain.LatencyPoint
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checks:    make(map[string][]checkRow),
		latencies: make(map[string][]latencyRow),
		states:    make(map[string]domain.MonitorState),
		incidents: make(map[string][]domain.Incident),
	}
}

func (m *MemoryStore) PutCheck(ctx context.Context, cr domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := checkRow{result: cr, expiresAt: time.Now().Add(CheckTTL)}
	rows := m.checks[cr.MonitorID]
	rows = append(rows, row)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].result.TimestampMS != rows[j].result.TimestampMS {
			return rows[i].result.TimestampMS < rows[j].result.TimestampMS
		}
		return rows[i].result.Region < rows[j].result.Region
	})
	m.checks[cr.MonitorID] = rows
	return nil
}

func (m *MemoryStore) RecentChecks(ctx context.Context, monitorID string, sinceMS int64) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var out []domain.CheckResult
	for _, row := range m.checks[monitorID] {
		if row.expiresAt.Before(now) {
			continue
		}
		if row.result.TimestampMS > sinceMS {
			out = append(out, row.result)
		}
	}
	return out, nil
}

func (m *MemoryStore) PutLatency(ctx context.Context, lp domain.LatencyPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lp.MonitorID + "#" + lp.Region
	row := latencyRow{point: lp, expiresAt: time.Now().Add(LatencyTTL)}
	rows := append(m.latencies[key], row)
	sort.Slice(rows, func(i, j int) bool { return rows[i].point.TimestampMS < rows[j].point.TimestampMS })
	m.latencies[key] = rows
	return nil
}

func (m *MemoryStore) LatencyHistory(ctx context.Context, monitorID, region string, sinceMS int64) ([]domain.LatencyPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	key := monitorID + "#" + region
	var out []domain.LatencyPoint
	for _, row := range m.latencies[key] {
		if row.expiresAt.Before(now) {
			continue
		}
		if row.point.TimestampMS > sinceMS {
			out = append(out, row.point)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetState(ctx context.Context, monitorID string) (*domain.MonitorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[monitorID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) PutState(ctx context.Context, state domain.MonitorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.MonitorID] = state
	return nil
}

func (m *MemoryStore) ListStates(ctx context.Context) ([]domain.MonitorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MonitorState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonitorID < out[j].MonitorID })
	return out, nil
}

func (m *MemoryStore) GetOpenIncident(ctx context.Context, monitorID string) (*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.incidents[monitorID]
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Open() {
			cp := rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetIncident(ctx context.Context, monitorID string, startMS int64) (*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inc := range m.incidents[monitorID] {
		if inc.StartMS == startMS {
			cp := inc
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) PutIncident(ctx context.Context, inc domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.incidents[inc.MonitorID]
	for i, existing := range rows {
		if existing.StartMS == inc.StartMS {
			rows[i] = inc
			m.incidents[inc.MonitorID] = rows
			return nil
		}
	}
	rows = append(rows, inc)
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartMS < rows[j].StartMS })
	m.incidents[inc.MonitorID] = rows
	return nil
}

func (m *MemoryStore) ListIncidents(ctx context.Context, monitorID string) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Incident
	if monitorID != "" {
		out = append(out, m.incidents[monitorID]...)
	} else {
		for _, rows := range m.incidents {
			out = append(out, rows...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMS > out[j].StartMS })
	return out, nil
}

func (m *MemoryStore) GetGlobalSummary(ctx context.Context) (*domain.GlobalSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.global == nil {
		return nil, nil
	}
	cp := *m.global
	return &cp, nil
}

func (m *MemoryStore) PutGlobalSummary(ctx context.Context, s domain.GlobalSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.global = &cp
	return nil
}

var _ Store = (*MemoryStore)(nil)
