// Package probedriver is the regional probe: it fans a single tick out
// across every monitor that lists this region as a vantage point, runs
// each check with bounded concurrency, and writes the outcome to the
// central store. Grounded on the teacher's scheduler.Rechecker.runOnce
// (ticker + semaphore + WaitGroup fan-out over a list of targets), with
// per-task panic isolation added since a probe driver runs unattended
// in a region with no operator watching its goroutines.
package probedriver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/probe"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

// Driver runs one region's probe loop: every Interval, it checks every
// monitor that has this region as a vantage point.
type Driver struct {
	Logger      *zap.Logger
	Store       store.Store
	Checker     probe.Checker
	Region      string
	Monitors    []domain.MonitorTarget
	Interval    time.Duration
	Concurrency int
	Metrics     *metrics.Probe
}

func New(logger *zap.Logger, st store.Store, checker probe.Checker, region string, monitors []domain.MonitorTarget, interval time.Duration, concurrency int) *Driver {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Driver{
		Logger:      logger,
		Store:       st,
		Checker:     checker,
		Region:      region,
		Monitors:    monitors,
		Interval:    interval,
		Concurrency: concurrency,
	}
}

// WithMetrics attaches a Prometheus registry, returning d for chaining.
func (d *Driver) WithMetrics(m *metrics.Probe) *Driver {
	d.Metrics = m
	return d
}

// Summary totals one RunOnce pass, logged as a single line by cmd/probe
// since it exits right after and can't be scraped over HTTP.
type Summary struct {
	ChecksTotal    int64
	ChecksFailed   int64
	ChecksPanicked int64
	Duration       time.Duration
}

// Run ticks forever, doing an immediate pass first, until ctx is cancelled.
// Used by a long-running deployment; cmd/probe's default one-shot mode
// calls RunOnce directly instead.
func (d *Driver) Run(ctx context.Context) {
	t := time.NewTicker(d.Interval)
	defer t.Stop()

	d.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			d.Logger.Info("probedriver_stopped", zap.String("region", d.Region))
			return
		case <-t.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce checks every in-scope monitor once and returns totals for the
// one-shot log line.
func (d *Driver) RunOnce(ctx context.Context) Summary {
	start := time.Now()

	var inScope []domain.MonitorTarget
	for _, m := range d.Monitors {
		if m.HasRegion(d.Region) {
			inScope = append(inScope, m)
		}
	}
	if len(inScope) == 0 {
		return Summary{Duration: time.Since(start)}
	}

	var total, failed, panicked int64
	sem := make(chan struct{}, d.Concurrency)
	var wg sync.WaitGroup

	for _, mon := range inScope {
		m := mon
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&panicked, 1)
					if d.Metrics != nil {
						d.Metrics.ChecksPanicked.Inc()
					}
					d.Logger.Error("probedriver_panic",
						zap.String("monitor_id", m.ID),
						zap.Any("recovered", r),
					)
				}
			}()
			atomic.AddInt64(&total, 1)
			if !d.checkOne(ctx, m) {
				atomic.AddInt64(&failed, 1)
			}
		}()
	}

	wg.Wait()
	return Summary{
		ChecksTotal:    total,
		ChecksFailed:   failed,
		ChecksPanicked: panicked,
		Duration:       time.Since(start),
	}
}

// checkOne runs and persists a single check, reporting whether it was
// persisted successfully.
func (d *Driver) checkOne(ctx context.Context, m domain.MonitorTarget) bool {
	cctx, cancel := context.WithTimeout(ctx, m.Timeout())
	defer cancel()

	checkStart := time.Now()
	result := d.Checker.Check(cctx, m, d.Region)
	if d.Metrics != nil {
		d.Metrics.ChecksTotal.Inc()
		d.Metrics.CheckDuration.WithLabelValues(string(result.Status)).Observe(time.Since(checkStart).Seconds())
	}

	if err := d.Store.PutCheck(ctx, result); err != nil {
		d.logPersistFailure(m, err, "probedriver_put_check_error")
		return false
	}

	lp := domain.LatencyPoint{
		MonitorID:   result.MonitorID,
		Region:      result.Region,
		TimestampMS: result.TimestampMS,
		LatencyMS:   result.LatencyMS,
		Timing:      result.Timing,
	}
	if err := d.Store.PutLatency(ctx, lp); err != nil {
		d.logPersistFailure(m, err, "probedriver_put_latency_error")
		return false
	}

	d.Logger.Debug("probedriver_checked",
		zap.String("monitor_id", m.ID),
		zap.String("region", d.Region),
		zap.String("status", string(result.Status)),
		zap.Int64("latency_ms", result.LatencyMS),
	)
	return true
}

func (d *Driver) logPersistFailure(m domain.MonitorTarget, err error, msg string) {
	if d.Metrics != nil {
		d.Metrics.ChecksFailed.Inc()
	}
	d.Logger.Warn(msg,
		zap.String("monitor_id", m.ID),
		zap.String("region", d.Region),
		zap.Error(err),
	)
}
