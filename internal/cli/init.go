// Package cli provides common initialization for the fintrack binaries:
// the HTTP server, the event worker, the recurring worker and the
// command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// NewLogger builds the logger described by cfg writing to out.
func NewLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	lc.Output = out
	if cfg != nil {
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		lc.Format = cfg.LogFormat
	}
	return log.New(lc)
}

// SetupLogger builds the stdout logger described by cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := NewLogger(cfg, component, os.Stdout)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// validates the result. It exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// App holds the services shared by every binary.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Backend   *backend.BackendResult
	Ledger    *services.LedgerService
	Dashboard *services.DashboardService
	Recurring *services.RecurringProcessor
	Import    *services.ImportService

	caches *cache.Manager
}

// NewApp opens the configured backend and wires the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	memo := cache.NewLRUCache[any](cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)
	caches := cache.NewManager()
	caches.Register(memo)
	if cfg.AnalyticsCacheTTL > 0 {
		caches.StartCleanup(cfg.AnalyticsCacheTTL)
	}

	engine := analytics.NewEngine(memo)
	ledger := services.NewLedgerService(res.Repository, res.Publisher(), engine)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Backend:   res,
		Ledger:    ledger,
		Dashboard: services.NewDashboardService(ledger, engine, cfg.TrendMonths),
		Recurring: services.NewRecurringProcessor(ledger, res.Publisher()),
		Import:    services.NewImportService(ledger, cfg.ImportBatchSize),
		caches:    caches,
	}, nil
}

// MustNewApp is NewApp for main functions: it exits on failure.
func MustNewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) *App {
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return app
}

// Close stops the cache janitor and closes the repository and broker client.
func (a *App) Close() error {
	a.caches.Stop()
	if err := a.Ledger.Close(); err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT or SIGTERM after cleanup has
// run or the timeout has elapsed; done is closed afterwards.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			if err := cleanup(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Shutdown cleanup failed", log.FieldError, err)
			}
		}
		cancel()

		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
