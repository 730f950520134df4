// Package worker consumes ledger events: it raises budget alerts when new
// spending crosses a threshold and relays pending recurring occurrences.
package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/period"
)

const (
	dedupeWindow = 24 * time.Hour
	dedupeSize   = 1024
)

// SnapshotSource is satisfied by *services.LedgerService.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*core.Snapshot, error)
}

// Notifier delivers what the worker decides is worth telling the user.
type Notifier interface {
	BudgetAlert(ctx context.Context, month period.Month, alert analytics.Alert) error
	RecurringDue(ctx context.Context, msg *amqp.RecurringPending) error
}

// EventWorker handles messages from the ledger queue. The same alert or
// pending occurrence is notified at most once per dedupe window, so
// redelivered or repeated messages stay quiet.
type EventWorker struct {
	ledger   SnapshotSource
	notifier Notifier
	seen     *cache.LRUCache[bool]
	logger   *log.Logger
}

func NewEventWorker(ledger SnapshotSource, notifier Notifier, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &EventWorker{
		ledger:   ledger,
		notifier: notifier,
		seen:     cache.NewLRUCache[bool](dedupeSize, dedupeWindow),
		logger:   logger,
	}
}

// Handlers adapts the worker to amqp.Client.Consume.
func (w *EventWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		TransactionCreated: w.HandleTransactionCreated,
		RecurringPending:   w.HandleRecurringPending,
	}
}

// Seen exposes the dedupe cache so callers can register it for cleanup.
func (w *EventWorker) Seen() cache.Cleaner { return w.seen }

// HandleTransactionCreated re-evaluates budgets for the month of the
// transaction and notifies alerts not yet reported at their current level.
func (w *EventWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreated) error {
	w.logger.DebugContext(ctx, "Processing transaction created message",
		log.FieldTransactionID, msg.ID,
		log.FieldSource, msg.Source)

	if msg.Date.IsEmpty() {
		return fmt.Errorf("transaction %s: missing date", msg.ID)
	}

	snap, err := w.ledger.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	month := period.MonthOf(msg.Date)
	alerts := analytics.BudgetAlerts(snap.Budgets, snap.Transactions, snap.Catalog, msg.Date)
	for _, a := range alerts {
		key := fmt.Sprintf("budget/%s/%s/%t", a.BudgetID, month.Key(), a.IsOver)
		if _, ok := w.seen.Get(key); ok {
			continue
		}
		if err := w.notifier.BudgetAlert(ctx, month, a); err != nil {
			return fmt.Errorf("notify budget %s: %w", a.BudgetID, err)
		}
		w.seen.Set(key, true)
	}
	return nil
}

// HandleRecurringPending relays a pending occurrence once. Nothing is
// written to the ledger.
func (w *EventWorker) HandleRecurringPending(ctx context.Context, msg *amqp.RecurringPending) error {
	key := fmt.Sprintf("recurring/%s/%s", msg.TemplateID, msg.Date)
	if _, ok := w.seen.Get(key); ok {
		w.logger.DebugContext(ctx, "Pending occurrence already notified",
			log.FieldTemplateID, msg.TemplateID)
		return nil
	}
	if err := w.notifier.RecurringDue(ctx, msg); err != nil {
		return fmt.Errorf("notify template %s: %w", msg.TemplateID, err)
	}
	w.seen.Set(key, true)
	return nil
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BudgetAlert(ctx context.Context, month period.Month, a analytics.Alert) error {
	level := "warning"
	if a.IsOver {
		level = "over"
	}
	n.logger.WarnContext(ctx, "Budget alert",
		log.FieldBudgetID, a.BudgetID,
		"name", a.Name,
		"level", level,
		"month", month.Key(),
		"spent_cents", a.Spent.Cents,
		"limit_cents", a.Limit.Cents,
		"percentage", a.Percentage)
	return nil
}

func (n *LogNotifier) RecurringDue(ctx context.Context, msg *amqp.RecurringPending) error {
	n.logger.InfoContext(ctx, "Recurring occurrence pending",
		log.FieldTemplateID, msg.TemplateID,
		log.FieldDescription, msg.Description,
		log.FieldAmountCents, msg.Amount.Cents,
		"date", msg.Date.String())
	return nil
}
