package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	// The worker only reads rows; it never opens the broker through the factory.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.AMQPURL = ""
	if err := backendCfg.RequireShared(); err != nil {
		logger.Error("The worker needs the backend the API writes to", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	if err := os.MkdirAll(filepath.Dir(cfg.AuditLogPath), 0755); err != nil {
		logger.Error("Failed to create audit log directory", "error", err, "path", cfg.AuditLogPath)
		os.Exit(1)
	}
	auditFile, err := os.OpenFile(cfg.AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger.Error("Failed to open audit log", "error", err, "path", cfg.AuditLogPath)
		os.Exit(1)
	}
	defer auditFile.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	audit := worker.NewAuditWorker(result.Backend, auditFile)

	logger.Info("Starting expenses worker",
		"queue", cfg.AMQPQueue,
		"audit_log", cfg.AuditLogPath)

	err = cli.Run(ctx, logger, shutdownTimeout,
		func(ctx context.Context) error {
			return client.ConsumeExpenseEvents(ctx, audit.HandleEvent)
		},
		func(context.Context) error {
			return client.Close()
		},
	)
	if err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
