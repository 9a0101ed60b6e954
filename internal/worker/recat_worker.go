// Package worker runs the background recategorization consumer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Config holds the worker's connection and scan settings.
type Config struct {
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// ScanInterval and ScanBatchSize drive the periodic backup scan that
	// catches transactions missed when messages are lost.
	ScanInterval  time.Duration
	ScanBatchSize int
}

// RecatWorker consumes recategorize jobs from AMQP and periodically scans
// for uncategorized transactions as a backup.
type RecatWorker struct {
	config    Config
	processor *services.RecategorizeProcessor
}

func New(config Config, repo *storage.Repository) *RecatWorker {
	return &RecatWorker{
		config:    config,
		processor: services.NewRecategorizeProcessor(repo),
	}
}

// Run blocks until the context is cancelled, driving the consumer loop and
// the periodic scan concurrently.
func (w *RecatWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.consumeLoop(ctx) })
	g.Go(func() error { return w.scanLoop(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// consumeLoop dials the broker with exponential backoff and consumes jobs
// until the connection drops, then reconnects.
func (w *RecatWorker) consumeLoop(ctx context.Context) error {
	for {
		client, err := w.connect(ctx)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}

		err = client.ConsumeRecategorize(ctx, func(msg *amqp.RecategorizeMessage) error {
			updated, err := w.processor.Process(ctx, msg)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "Recategorize job handled",
				"scope", msg.Scope,
				"rule_id", msg.RuleID,
				"updated", updated)
			return nil
		})
		client.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.WarnContext(ctx, "AMQP consumption interrupted, reconnecting", "error", err)
	}
}

func (w *RecatWorker) connect(ctx context.Context) (*amqp.Client, error) {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	), ctx)

	var client *amqp.Client
	operation := func() error {
		var err error
		client, err = amqp.NewClient(w.config.AMQPURL, w.config.AMQPExchange, w.config.AMQPQueue)
		if err != nil {
			slog.WarnContext(ctx, "AMQP dial failed, retrying", "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Connected to AMQP",
		"exchange", w.config.AMQPExchange,
		"queue", w.config.AMQPQueue)
	return client, nil
}

// scanLoop periodically fills categories for uncategorized transactions.
// A scan failure is logged and retried next tick.
func (w *RecatWorker) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			updated, err := w.processor.ProcessUncategorized(ctx, w.config.ScanBatchSize)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic scan failed", "error", err)
				continue
			}
			if updated > 0 {
				slog.InfoContext(ctx, "Periodic scan categorized transactions", "updated", updated)
			}
		}
	}
}
