package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreated) error
	PublishRecurringPending(ctx context.Context, msg *amqp.RecurringPending) error
}

// LedgerService orchestrates ledger writes, event publishing and snapshot loading.
type LedgerService struct {
	repo   ledger.Repository
	events EventPublisher
	engine *analytics.Engine
	now    func() time.Time
}

// NewLedgerService accepts nil events and a nil engine.
func NewLedgerService(repo ledger.Repository, events EventPublisher, engine *analytics.Engine) *LedgerService {
	return &LedgerService{
		repo:   repo,
		events: events,
		engine: engine,
		now:    time.Now,
	}
}

func (s *LedgerService) Repository() ledger.Repository { return s.repo }

// Today is the current calendar day in local time.
func (s *LedgerService) Today() core.Date { return core.DateOf(s.now()) }

// Snapshot loads a consistent view of the whole ledger.
func (s *LedgerService) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	snap, err := ledger.LoadSnapshot(ctx, s.repo)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// ListTransactions returns transactions matching f, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// CreateTransaction saves the transaction and announces it.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction, source string) (core.Transaction, error) {
	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed()

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionCreated(ctx, created.ID, created.Description, created.Amount.Cents, created.SubcategoryID, source)

	s.publishCreated(ctx, created, source)
	return created, nil
}

// CreateTransactions implements importer.BatchWriter.
func (s *LedgerService) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	created, err := s.repo.CreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("save transaction batch: %w", err)
	}
	s.changed()
	for _, tx := range created {
		s.publishCreated(ctx, tx, amqp.SourceImport)
	}
	return created, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed()
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// publishCreated never fails the caller: the transaction is already stored.
func (s *LedgerService) publishCreated(ctx context.Context, tx core.Transaction, source string) {
	if s.events == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping message", "id", tx.ID)
		return
	}
	if err := s.events.PublishTransactionCreated(ctx, amqp.NewTransactionCreated(tx, source)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created message", "id", tx.ID, "error", err)
	}
}

func (s *LedgerService) changed() {
	if s.engine != nil {
		s.engine.Invalidate()
	}
}

// Close closes the repository and, when it is closable, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
	}

	if c, ok := s.events.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
