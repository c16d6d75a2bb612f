package main

import (
	"context"
	"errors"
	"os"
	"time"

	"razhodi/internal/backend"
	"razhodi/internal/cli"
	applog "razhodi/internal/log"
	"razhodi/internal/worker"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting razhodi-worker")

	flush, err := cli.InitSentry(cfg.SentryDSN, "razhodi-worker")
	if err != nil {
		logger.Error("Failed to initialize Sentry", "error", err)
	}
	defer flush()

	if !cfg.AMQPEnabled() || !cfg.SheetsEnabled() {
		logger.Error("The worker needs AMQP_URL and GOOGLE_SPREADSHEET_ID",
			"amqp_enabled", cfg.AMQPEnabled(),
			"sheets_enabled", cfg.SheetsEnabled())
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.RequireAMQP = true

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(res.Store, res.Workbook)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	// messages missed while the worker was down
	if err := mirror.ResyncAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Startup resync failed", "error", err, applog.FieldOperation, applog.OpStartup)
	}
	if cfg.ResyncInterval > 0 {
		logger.Info("Periodic resync enabled", "interval", cfg.ResyncInterval.String())
		go mirror.RunPeriodicResync(ctx, cfg.ResyncInterval)
	}

	if err := res.AMQP.ConsumeGridChanged(ctx, mirror.HandleGridChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		_ = res.Cleanup()
		flush()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
