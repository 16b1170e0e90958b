// cmd/aggregator fuses the latest per-region observations into
// per-monitor state, advances incident lifecycle, and sends gated
// notifications. By default it runs a single tick and exits, for an
// external scheduler; --daemon keeps it alive on an internal ticker.
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

	"github.com/hamed0406/regionalmonitor/internal/aggregator"
	"github.com/hamed0406/regionalmonitor/internal/config"
	"github.com/hamed0406/regionalmonitor/internal/logging"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/notify"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

func main() {
	var (
		daemon   = flag.Bool("daemon", false, "keep running on an internal ticker instead of exiting after one tick")
		interval = flag.Duration("interval", 30*time.Second, "tick interval when --daemon is set")
	)
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, "aggregator")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("aggregator_store_init_error", zap.Error(err))
	}

	var notifier notify.Notifier
	if cfg.Notification.Webhook != nil {
		if wh := notify.NewWebhook(
			cfg.Notification.Webhook.URL,
			cfg.Notification.Webhook.Method,
			notify.PayloadType(cfg.Notification.Webhook.PayloadType),
			cfg.Notification.Webhook.Payload,
			time.Duration(cfg.Notification.Webhook.TimeoutMS)*time.Millisecond,
		); wh != nil {
			notifier = wh
		}
	}

	agg := aggregator.New(logger, st, notifier, cfg.Monitors, cfg.Notification, *interval).
		WithMetrics(metrics.NewAggregator())

	if *daemon {
		logger.Info("aggregator_daemon_start", zap.Duration("interval", *interval))
		agg.Run(ctx)
		return
	}

	start := time.Now()
	agg.RunOnce(ctx, time.Now())
	logger.Info("aggregator_tick_complete",
		zap.Int("monitors", len(cfg.Monitors)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.TableName == "" {
		logger.Warn("aggregator_using_memory_store", zap.String("reason", "TABLE_NAME unset"))
		return store.NewMemoryStore(), nil
	}
	return store.New(ctx, cfg.CentralRegion, cfg.TableName, logger)
}
