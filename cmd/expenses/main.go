package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expenses/internal/backend"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	// A nil EventClient must stay a nil Publisher.
	var publisher services.Publisher
	if result.Events != nil {
		publisher = result.Events
	}

	expenses := services.NewExpenseService(result.Backend, publisher, logger)
	reports := services.NewReportService(expenses)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, reports, apphttp.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Logger:         logger,
	})

	logger.Info("Starting expenses server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", publisher != nil)

	err = cli.Run(ctx, logger, shutdownTimeout,
		func(context.Context) error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		srv.Shutdown,
	)
	if err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
