// cmd/probe is the regional prober: by default it runs a single tick
// over every monitor that lists its region, writes CHECK#/LATENCY#
// rows, logs a one-shot summary, and exits — meant to be invoked by an
// external scheduler (cron, Lambda) once per region per interval.
// --daemon keeps it alive with an internal ticker instead, for
// deployments with no such scheduler.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/config"
	"github.com/hamed0406/regionalmonitor/internal/logging"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/probe"
	"github.com/hamed0406/regionalmonitor/internal/probedriver"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

func main() {
	var (
		region   = flag.String("region", "", "vantage point region; overrides PROBE_REGION")
		daemon   = flag.Bool("daemon", false, "keep running on an internal ticker instead of exiting after one tick")
		interval = flag.Duration("interval", 30*time.Second, "tick interval when --daemon is set")
	)
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *region != "" {
		cfg.Region = *region
	}
	if cfg.Region == "" {
		log.Fatal("region is required: pass --region or set PROBE_REGION")
	}

	logger, err := logging.NewLogger(cfg.LogDir, "probe")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("probe_store_init_error", zap.Error(err))
	}

	probeMetrics := metrics.NewProbe(cfg.Region)
	driver := probedriver.New(logger, st, probe.NewDispatcher(), cfg.Region, cfg.Monitors, *interval, cfg.MaxConcurrentChecks).
		WithMetrics(probeMetrics)

	if *daemon {
		logger.Info("probe_daemon_start", zap.String("region", cfg.Region), zap.Duration("interval", *interval))
		driver.Run(ctx)
		return
	}

	summary := driver.RunOnce(ctx)
	logger.Info("probe_tick_complete",
		zap.String("region", cfg.Region),
		zap.Int64("checks_total", summary.ChecksTotal),
		zap.Int64("checks_failed", summary.ChecksFailed),
		zap.Int64("checks_panicked", summary.ChecksPanicked),
		zap.Int64("duration_ms", summary.Duration.Milliseconds()),
	)
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.TableName == "" {
		logger.Warn("probe_using_memory_store", zap.String("reason", "TABLE_NAME unset"))
		return store.NewMemoryStore(), nil
	}
	return store.New(ctx, cfg.CentralRegion, cfg.TableName, logger)
}
