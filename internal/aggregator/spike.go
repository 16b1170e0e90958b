package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

// minBaselineSamples is the sample floor below which spike detection
// is skipped rather than fired on a noisy baseline (spec §4.5).
const minBaselineSamples = 6

// detectSpike reports whether the primary observation's latency
// exceeds the rolling median baseline by more than threshold_percent,
// and the phase it attributes the spike to.
func detectSpike(ctx context.Context, st store.Store, m domain.MonitorTarget, primary domain.CheckResult, nowMS int64) (fired bool, phase string, err error) {
	if m.Alerting == nil || !m.Alerting.SpikeEnabled {
		return false, "", nil
	}
	windowMin := m.Alerting.BaselineWindowMin
	if windowMin <= 0 {
		windowMin = 30
	}
	sinceMS := nowMS - int64(windowMin)*60_000

	points, err := st.LatencyHistory(ctx, m.ID, m.PrimaryRegion, sinceMS)
	if err != nil {
		return false, "", err
	}
	if len(points) < minBaselineSamples {
		return false, "", nil
	}

	baseline := medianLatency(points)
	thresholdPercent := m.Alerting.SpikeThresholdPercent
	if thresholdPercent <= 0 {
		thresholdPercent = 100
	}
	limit := baseline * (1 + float64(thresholdPercent)/100)
	if float64(primary.LatencyMS) <= limit {
		return false, "", nil
	}
	return true, attributePhase(primary.Timing), nil
}

func medianLatency(points []domain.LatencyPoint) float64 {
	vals := make([]int64, len(points))
	for i, p := range points {
		vals[i] = p.LatencyMS
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return float64(vals[mid])
	}
	return float64(vals[mid-1]+vals[mid]) / 2
}

// attributePhase names the phase most likely responsible for a latency
// spike, per spec §4.5's advisory heuristic ladder.
func attributePhase(t domain.TimingMetrics) string {
	switch {
	case t.DNSLookup > 100:
		return "DNS"
	case t.TLSHandshake > 200:
		return "TLS"
	case float64(t.TTFB) > 0.7*float64(t.Total):
		return "TTFB"
	default:
		return "overall"
	}
}

func spikeMessage(m domain.MonitorTarget, primary domain.CheckResult, phase string) string {
	return fmt.Sprintf("Latency spike on %s: %dms (phase: %s) at %s",
		m.Name, primary.LatencyMS, phase, time.UnixMilli(primary.TimestampMS).UTC().Format(time.RFC3339))
}
