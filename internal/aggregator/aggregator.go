// Package aggregator fuses per-region observations into per-monitor
// state, per spec §4.5. Grounded on the teacher's
// scheduler.Alerter.scanOnce shape — read latest rows, diff against
// last-known state, conditionally notify — generalized from a single
// up/down flag into the full down/degraded/up state machine, incident
// lifecycle, grace-period-gated notifications, and spike detection.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/config"
	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/notify"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

type Aggregator struct {
	Logger       *zap.Logger
	Store        store.Store
	Notifier     notify.Notifier
	Monitors     []domain.MonitorTarget
	Notification config.NotificationConfig
	Interval     time.Duration
	Metrics      *metrics.Aggregator
}

// WithMetrics attaches a Prometheus registry, returning a for chaining
// (as in New(...).WithMetrics(...)).
func (a *Aggregator) WithMetrics(m *metrics.Aggregator) *Aggregator {
	a.Metrics = m
	return a
}

func New(logger *zap.Logger, st store.Store, notifier notify.Notifier, monitors []domain.MonitorTarget, notification config.NotificationConfig, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Aggregator{
		Logger:       logger,
		Store:        st,
		Notifier:     notifier,
		Monitors:     monitors,
		Notification: notification,
		Interval:     interval,
	}
}

// Run ticks forever, doing an immediate pass first, until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	t := time.NewTicker(a.Interval)
	defer t.Stop()

	a.RunOnce(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("aggregator_stopped")
			return
		case now := <-t.C:
			a.RunOnce(ctx, now)
		}
	}
}

// RunOnce processes every configured monitor sequentially (spec §5:
// simpler and adequate at minute cadence, safe to parallelize later
// since each monitor's state key is disjoint) and then overwrites the
// global summary.
func (a *Aggregator) RunOnce(ctx context.Context, now time.Time) {
	start := time.Now()
	nowMS := now.UnixMilli()

	var up, down, degraded int
	for _, m := range a.Monitors {
		if a.Metrics != nil {
			a.Metrics.MonitorsEvaluated.Inc()
		}
		status, err := a.processMonitor(ctx, m, nowMS)
		if err != nil {
			if a.Metrics != nil {
				a.Metrics.MonitorErrors.Inc()
			}
			a.Logger.Warn("aggregator_monitor_error",
				zap.String("monitor_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		switch status {
		case domain.StatusUp:
			up++
		case domain.StatusDown:
			down++
		case domain.StatusDegraded:
			degraded++
		}
	}

	summary := domain.GlobalSummary{
		OverallUp:       up,
		OverallDown:     down,
		OverallDegraded: degraded,
		LastUpdateMS:    nowMS,
	}
	if err := a.Store.PutGlobalSummary(ctx, summary); err != nil {
		a.Logger.Warn("aggregator_put_summary_error", zap.Error(err))
	}
	if a.Metrics != nil {
		a.Metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func (a *Aggregator) processMonitor(ctx context.Context, m domain.MonitorTarget, nowMS int64) (domain.Status, error) {
	obs, err := observations(ctx, a.Store, m, nowMS)
	if err != nil {
		return "", fmt.Errorf("collect observations: %w", err)
	}

	status, regionsDown := tally(m, obs)
	primary, havePrimary := primaryObservation(m, obs)

	prev, err := a.Store.GetState(ctx, m.ID)
	if err != nil {
		return "", fmt.Errorf("get state: %w", err)
	}
	if prev == nil {
		prev = &domain.MonitorState{MonitorID: m.ID}
	}

	next := domain.MonitorState{
		MonitorID:      m.ID,
		Status:         status,
		RegionStatuses: regionStatuses(obs),
		LastCheckMS:    nowMS,
	}
	if havePrimary {
		next.PrimaryLatencyMS = primary.LatencyMS
		next.PrimaryTiming = primary.Timing
	}

	applyDownTransition(prev, &next, status, nowMS)
	applySlowTransition(m, prev, &next, nowMS)

	skip := a.Notification.Skip(m.ID)

	if err := a.handleIncidents(ctx, m, &next, nowMS, regionsDown); err != nil {
		return "", fmt.Errorf("incident lifecycle: %w", err)
	}

	if !skip {
		a.sendNotifications(ctx, m, prev, &next, nowMS)
		if havePrimary {
			if fired, phase, err := detectSpike(ctx, a.Store, m, primary, nowMS); err != nil {
				a.Logger.Warn("aggregator_spike_check_error", zap.String("monitor_id", m.ID), zap.Error(err))
			} else if fired {
				a.notify(ctx, "spike", "Latency spike", spikeMessage(m, primary, phase))
			}
		}
	}

	if err := a.Store.PutState(ctx, next); err != nil {
		return "", fmt.Errorf("put state: %w", err)
	}
	return status, nil
}

// applyDownTransition implements spec §4.5's down_since rules: set on
// entering down from anything else, kept while the status stays down,
// and cleared on any non-down status. Up also clears last_notified_down;
// degraded keeps it.
func applyDownTransition(prev, next *domain.MonitorState, status domain.Status, nowMS int64) {
	switch {
	case status == domain.StatusDown && prev.DownSinceMS == nil:
		ms := nowMS
		next.DownSinceMS = &ms
		next.LastNotifiedDownMS = prev.LastNotifiedDownMS
	case status == domain.StatusDown:
		next.DownSinceMS = prev.DownSinceMS
		next.LastNotifiedDownMS = prev.LastNotifiedDownMS
	case status == domain.StatusUp:
		next.DownSinceMS = nil
		next.LastNotifiedDownMS = nil
	default: // degraded
		next.DownSinceMS = nil
		next.LastNotifiedDownMS = prev.LastNotifiedDownMS
	}
}

func applySlowTransition(m domain.MonitorTarget, prev, next *domain.MonitorState, nowMS int64) {
	if m.LatencyThresholdMS == nil {
		next.SlowSinceMS = nil
		next.LastNotifiedSlowMS = nil
		return
	}
	if next.PrimaryLatencyMS > *m.LatencyThresholdMS {
		if prev.SlowSinceMS != nil {
			next.SlowSinceMS = prev.SlowSinceMS
		} else {
			ms := nowMS
			next.SlowSinceMS = &ms
		}
		next.LastNotifiedSlowMS = prev.LastNotifiedSlowMS
		return
	}
	next.SlowSinceMS = nil
	next.LastNotifiedSlowMS = nil
}

// handleIncidents implements spec §4.5's incident lifecycle. Both the
// open and the close side key off the store's open incident rather
// than the current tick's down_since_ms: down_since_ms is cleared on
// any non-down status (per applyDownTransition's degraded case), so a
// down->degraded->up or down->degraded->down sequence would otherwise
// lose track of the incident opened during the original down period on
// the very first degraded tick.
func (a *Aggregator) handleIncidents(ctx context.Context, m domain.MonitorTarget, next *domain.MonitorState, nowMS int64, regionsDown []string) error {
	open, err := a.Store.GetOpenIncident(ctx, m.ID)
	if err != nil {
		return err
	}

	if next.Status == domain.StatusDown && next.DownSinceMS != nil {
		errText := ""
		if len(regionsDown) > 0 {
			errText = fmt.Sprintf("%d region(s) reporting down", len(regionsDown))
		}
		id := uuid.NewString()
		startMS := *next.DownSinceMS
		if open != nil {
			id = open.ID
			startMS = open.StartMS
		} else if a.Metrics != nil {
			a.Metrics.IncidentsOpened.Inc()
		}
		inc := domain.Incident{
			ID:          id,
			MonitorID:   m.ID,
			StartMS:     startMS,
			Error:       errText,
			RegionsDown: regionsDown,
		}
		return a.Store.PutIncident(ctx, inc)
	}

	if next.Status == domain.StatusUp && open != nil {
		end := nowMS
		open.EndMS = &end
		if err := a.Store.PutIncident(ctx, *open); err != nil {
			return err
		}
		if a.Metrics != nil {
			a.Metrics.IncidentsClosed.Inc()
		}
	}
	return nil
}

func (a *Aggregator) sendNotifications(ctx context.Context, m domain.MonitorTarget, prev, next *domain.MonitorState, nowMS int64) {
	graceDown, graceSlow := graceMS(m, a.Notification)

	// Down: edge-triggered, gated by grace period.
	if next.Status == domain.StatusDown && next.DownSinceMS != nil {
		elapsed := nowMS - *next.DownSinceMS
		notified := next.LastNotifiedDownMS != nil && *next.LastNotifiedDownMS >= *next.DownSinceMS
		if elapsed >= graceDown && !notified {
			ms := nowMS
			next.LastNotifiedDownMS = &ms
			a.notify(ctx, "down", "Monitor DOWN", fmt.Sprintf("%s is down", m.Name))
		}
	}

	// Up after down: fire once if a down notification was previously sent.
	if next.Status == domain.StatusUp && prev.Status == domain.StatusDown && prev.LastNotifiedDownMS != nil {
		a.notify(ctx, "recovered", "Monitor RECOVERED", fmt.Sprintf("%s recovered", m.Name))
	}

	// Slow / fast-again.
	if next.SlowSinceMS != nil {
		elapsed := nowMS - *next.SlowSinceMS
		if elapsed >= graceSlow && next.LastNotifiedSlowMS == nil {
			ms := nowMS
			next.LastNotifiedSlowMS = &ms
			a.notify(ctx, "slow", "Monitor SLOW", fmt.Sprintf("%s latency %dms exceeds threshold", m.Name, next.PrimaryLatencyMS))
		}
	} else if prev.SlowSinceMS != nil && prev.LastNotifiedSlowMS != nil {
		a.notify(ctx, "fast_again", "Monitor fast again", fmt.Sprintf("%s latency back under threshold", m.Name))
	}
}

func (a *Aggregator) notify(ctx context.Context, kind, title, text string) {
	if a.Metrics != nil {
		a.Metrics.Notifications.WithLabelValues(kind).Inc()
	}
	if a.Notifier == nil {
		return
	}
	if err := a.Notifier.Send(ctx, title, text); err != nil {
		a.Logger.Warn("aggregator_notify_error", zap.String("title", title), zap.Error(err))
	}
}

// graceMS resolves a monitor's down/slow grace periods: per-monitor
// alerting config first, falling back to the notification-wide
// grace_period (minutes).
func graceMS(m domain.MonitorTarget, n config.NotificationConfig) (downMS, slowMS int64) {
	globalMS := int64(n.GracePeriodMinutes) * 60_000
	downMS, slowMS = globalMS, globalMS
	if m.Alerting != nil {
		if m.Alerting.GraceDownMS > 0 {
			downMS = m.Alerting.GraceDownMS
		}
		if m.Alerting.GraceSlowMS > 0 {
			slowMS = m.Alerting.GraceSlowMS
		}
	}
	return downMS, slowMS
}
