package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/worker"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	w := worker.New(worker.Config{
		AMQPURL:       cfg.AMQPURL,
		AMQPExchange:  cfg.AMQPExchange,
		AMQPQueue:     cfg.AMQPQueue,
		ScanInterval:  cfg.ScanInterval,
		ScanBatchSize: cfg.ScanBatchSize,
	}, repo)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Starting recat-worker",
		"queue", cfg.AMQPQueue,
		"scan_interval", cfg.ScanInterval.String())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
