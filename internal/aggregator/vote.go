package aggregator

import (
	"context"

	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

// observations collects, per region, the most recent CHECK# record
// within the window ending at nowMS, per spec §4.5 step 1. A region
// with no record inside the window is simply absent from the map.
func observations(ctx context.Context, st store.Store, m domain.MonitorTarget, nowMS int64) (map[string]domain.CheckResult, error) {
	sinceMS := nowMS - observationWindowMS
	rows, err := st.RecentChecks(ctx, m.ID, sinceMS)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]domain.CheckResult, len(m.Regions))
	for _, r := range rows {
		cur, ok := latest[r.Region]
		if !ok || r.TimestampMS > cur.TimestampMS {
			latest[r.Region] = r
		}
	}
	return latest, nil
}

// observationWindowMS is W in spec §4.5: 90s, wide enough to absorb
// clock drift between the probe's tick and the aggregator's tick.
const observationWindowMS = 90_000

// tally implements spec §4.5 steps 2-4: count up/down votes among the
// regions that reported, derive the majority threshold, and return the
// aggregated status.
func tally(m domain.MonitorTarget, obs map[string]domain.CheckResult) (status domain.Status, regionsDown []string) {
	var down int
	for _, region := range m.Regions {
		r, ok := obs[region]
		if !ok {
			continue
		}
		if r.Status == domain.StatusDown {
			down++
			regionsDown = append(regionsDown, region)
		}
	}

	threshold := voteThreshold(m)
	majorityDown := down >= threshold

	switch {
	case majorityDown:
		status = domain.StatusDown
	case down > 0:
		status = domain.StatusDegraded
	default:
		status = domain.StatusUp
	}
	return status, regionsDown
}

// voteThreshold returns alerting.down_vote_threshold when configured,
// else ceil(len(regions)/2).
func voteThreshold(m domain.MonitorTarget) int {
	if m.Alerting != nil && m.Alerting.DownVoteThreshold > 0 {
		return m.Alerting.DownVoteThreshold
	}
	return (len(m.Regions) + 1) / 2
}

// primaryObservation returns the primary region's observation, or the
// zero value with ok=false if the primary region didn't report.
func primaryObservation(m domain.MonitorTarget, obs map[string]domain.CheckResult) (domain.CheckResult, bool) {
	r, ok := obs[m.PrimaryRegion]
	return r, ok
}

func regionStatuses(obs map[string]domain.CheckResult) map[string]domain.RegionStatus {
	out := make(map[string]domain.RegionStatus, len(obs))
	for region, r := range obs {
		out[region] = domain.RegionStatus{Status: r.Status, LatencyMS: r.LatencyMS}
	}
	return out
}
