package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
)

// WatcherConfig holds configuration for the recurring watcher
type WatcherConfig struct {
	// Interval is how often pending occurrences are checked (default: 1h)
	Interval time.Duration

	// RunOnStart triggers a check immediately on Start (default: true)
	RunOnStart bool
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// RecurringWatcher periodically publishes pending-occurrence notifications.
type RecurringWatcher struct {
	processor *RecurringProcessor
	config    WatcherConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecurringWatcher(processor *RecurringProcessor, config WatcherConfig) *RecurringWatcher {
	if config.Interval <= 0 {
		config.Interval = DefaultWatcherConfig().Interval
	}
	return &RecurringWatcher{
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the check loop. Returns an error if already running.
func (w *RecurringWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("recurring watcher is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring watcher started", "interval", w.config.Interval)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (w *RecurringWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring watcher stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring watcher stop timed out")
		return ctx.Err()
	}
}

func (w *RecurringWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RecurringWatcher) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if w.config.RunOnStart {
		w.check(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *RecurringWatcher) check(ctx context.Context) {
	sent, err := w.processor.NotifyPending(ctx, core.DateOf(w.now()))
	if err != nil {
		slog.ErrorContext(ctx, "Recurring check failed", "error", err)
		return
	}
	if sent > 0 {
		slog.InfoContext(ctx, "Published pending occurrences", "count", sent)
	}
}
