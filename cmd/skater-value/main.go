package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/skater-value/internal/app"
	"github.com/riskibarqy/skater-value/internal/config"
	"github.com/riskibarqy/skater-value/internal/observability"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer application.Close()

	if !cfg.Scheduled() {
		if _, err := application.RunOnce(ctx); err != nil {
			return 1
		}
		return 0
	}

	scheduler, err := app.NewScheduler(cfg.PipelineSchedule, cfg.PipelineLocation, func(runCtx context.Context) {
		// Failures are logged by the pipeline; the next tick retries.
		_, _ = application.RunOnce(runCtx)
	}, logger)
	if err != nil {
		logger.Error("build scheduler", "error", err)
		return 1
	}
	scheduler.Run(ctx)
	logger.Info("pipeline scheduler stopped")
	return 0
}
