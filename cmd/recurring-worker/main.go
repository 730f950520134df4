package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

// The recurring worker only detects and announces pending occurrences;
// recording them stays an explicit action through the API or the CLI.
func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentRecurring)
	app := cli.MustNewApp(context.Background(), cfg, logger)

	processor := app.Recurring
	switch {
	case !cfg.RecurringNotify:
		processor = services.NewRecurringProcessor(app.Ledger, nil)
		logger.Info("Notifications disabled, pending occurrences are only logged")
	case app.Backend.Events == nil:
		logger.Info("AMQP disabled, pending occurrences are only logged")
	}

	watcher := services.NewRecurringWatcher(processor, services.WatcherConfig{
		Interval:   cfg.RecurringCheckInterval,
		RunOnStart: true,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		if err := watcher.Stop(ctx); err != nil {
			return err
		}
		return app.Close()
	})

	logger.Info("Starting recurring-worker",
		"interval", cfg.RecurringCheckInterval,
		"backend", cfg.DataBackend)
	if err := watcher.Start(ctx); err != nil {
		logger.Error("Failed to start recurring watcher", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
