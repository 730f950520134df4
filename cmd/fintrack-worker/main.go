package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	dedupeCleanup   = time.Hour
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	app := cli.MustNewApp(context.Background(), cfg, logger)
	if app.Backend.Events == nil {
		logger.Error("AMQP broker unreachable, nothing to consume", "queue", cfg.AMQPQueue)
		_ = app.Close()
		os.Exit(1)
	}

	w := worker.NewEventWorker(app.Ledger, nil, logger)
	janitor := cache.NewManager()
	janitor.Register(w.Seen())
	janitor.StartCleanup(dedupeCleanup)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) error {
		janitor.Stop()
		return nil
	})

	logger.Info("Starting fintrack worker",
		"queue", cfg.AMQPQueue,
		"exchange", cfg.AMQPExchange,
		"backend", cfg.DataBackend)

	// Consume returns on shutdown or when the channel is lost.
	if err := app.Backend.Events.Consume(ctx, w.Handlers()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		janitor.Stop()
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := app.Close(); err != nil {
		logger.Error("Failed to close ledger", log.FieldError, err)
	}
	logger.Info("Worker stopped")
}
