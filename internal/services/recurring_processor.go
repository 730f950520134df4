package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/recurrence"
)

var ErrAlreadyRecorded = errors.New("occurrence already recorded")

// RecurringProcessor detects pending occurrences and generates transactions on request.
// It never writes a transaction on its own.
type RecurringProcessor struct {
	ledger *LedgerService
	events EventPublisher
}

func NewRecurringProcessor(ledger *LedgerService, events EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		ledger: ledger,
		events: events,
	}
}

// Pending lists every template occurrence due on or before today and not yet recorded.
func (p *RecurringProcessor) Pending(ctx context.Context, today core.Date) ([]recurrence.Occurrence, error) {
	snap, err := p.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return recurrence.Pending(snap.Recurring, snap.Transactions, today), nil
}

// Generate records the template's occurrence for the month of today. Templates
// without a scheduled occurrence are recorded on today.
func (p *RecurringProcessor) Generate(ctx context.Context, templateID string, today core.Date) (core.Transaction, error) {
	tmpl, err := p.ledger.Repository().GetRecurring(ctx, templateID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get recurring template: %w", err)
	}
	snap, err := p.ledger.Snapshot(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	date, ok := recurrence.Expected(tmpl, today)
	if !ok {
		date = today
	}
	if recurrence.IsRecorded(tmpl, date, snap.Transactions) {
		return core.Transaction{}, fmt.Errorf("template %q on %s: %w", templateID, date, ErrAlreadyRecorded)
	}

	tx, err := p.ledger.CreateTransaction(ctx, recurrence.BuildTransaction(tmpl, date), amqp.SourceRecurring)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Generated transaction from recurring template",
		"template_id", tmpl.ID,
		"description", tmpl.Description,
		"amount_cents", tmpl.Amount.Cents,
		"date", date.String())
	return tx, nil
}

// NotifyPending publishes one message per pending occurrence and returns how many were sent.
func (p *RecurringProcessor) NotifyPending(ctx context.Context, today core.Date) (int, error) {
	pending, err := p.Pending(ctx, today)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Checked recurring templates",
		"pending", len(pending),
		"date", today.String())

	if p.events == nil || len(pending) == 0 {
		return 0, nil
	}

	sent := 0
	for _, occ := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		msg := amqp.NewRecurringPending(occ.Template, occ.ExpectedDate)
		if err := p.events.PublishRecurringPending(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish recurring pending message",
				"template_id", occ.Template.ID,
				"error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
