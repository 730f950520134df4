package ledger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// Reader is the read side needed to build a snapshot.
type Reader interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListSubcategories(ctx context.Context) ([]core.Subcategory, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	ListRecurring(ctx context.Context, f RecurringFilter) ([]core.RecurringTemplate, error)
}

// LoadSnapshot fetches every entity list concurrently. Any failure fails the whole load.
func LoadSnapshot(ctx context.Context, r Reader) (*core.Snapshot, error) {
	var (
		accounts  []core.Account
		cats      []core.Category
		subs      []core.Subcategory
		txs       []core.Transaction
		budgets   []core.Budget
		recurring []core.RecurringTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = r.ListAccounts(gctx)
		return wrap("accounts", err)
	})
	g.Go(func() (err error) {
		cats, err = r.ListCategories(gctx)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		subs, err = r.ListSubcategories(gctx)
		return wrap("subcategories", err)
	})
	g.Go(func() (err error) {
		txs, err = r.ListTransactions(gctx, TransactionFilter{})
		return wrap("transactions", err)
	})
	g.Go(func() (err error) {
		budgets, err = r.ListBudgets(gctx)
		return wrap("budgets", err)
	})
	g.Go(func() (err error) {
		recurring, err = r.ListRecurring(gctx, RecurringFilter{})
		return wrap("recurring templates", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return core.NewSnapshot(accounts, cats, subs, txs, budgets, recurring), nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
