// cmd/api is the long-running read-only query layer: it serves
// /api/status, /api/history, /api/incidents, /api/config, and
// /api/badge over a chi router, grounded on the teacher's
// cmd/api/main.go + internal/httpapi.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/config"
	"github.com/hamed0406/regionalmonitor/internal/httpapi"
	"github.com/hamed0406/regionalmonitor/internal/logging"
	"github.com/hamed0406/regionalmonitor/internal/metrics"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, "api")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.TableName == "" {
		logger.Warn("api_using_memory_store", zap.String("reason", "TABLE_NAME unset"))
		st = store.NewMemoryStore()
	} else {
		st, err = store.New(ctx, cfg.CentralRegion, cfg.TableName, logger)
		if err != nil {
			logger.Fatal("api_store_init_error", zap.Error(err))
		}
	}

	srv := httpapi.NewServer(logger, st, cfg.Monitors, cfg.Maintenances, cfg.Page).
		WithMetrics(metrics.NewQuery())

	user, pass, _ := cfg.BasicAuthUserPass()
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(user, pass, cfg.RateLimitRPM, cfg.RateLimitBurst),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("api_serve_error", zap.Error(err))
	}
}
