package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"razhodi/internal/backend"
	"razhodi/internal/cli"
	apphttp "razhodi/internal/http"
	applog "razhodi/internal/log"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	flush, err := cli.InitSentry(cfg.SentryDSN, "razhodi")
	if err != nil {
		logger.Error("Failed to initialize Sentry", "error", err)
	}
	defer flush()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:             res.Store,
		Publisher:         res.Publisher,
		Sheets:            res.Workbook,
		Logger:            logger,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting razhodi server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", res.Publisher != nil,
		"sheets_enabled", res.Workbook != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		flush()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
