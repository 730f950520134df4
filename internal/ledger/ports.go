// Package ledger defines the persistence ports of the ledger and the
// snapshot loader that feeds the engine.
package ledger

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInUse is returned when deleting an entity still referenced by others.
	ErrInUse = errors.New("entity is still referenced")
)

// Ports for the ledger storage. Update methods take the full record.
type (
	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) error
	}

	CatalogStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error

		ListSubcategories(ctx context.Context) ([]core.Subcategory, error)
		CreateSubcategory(ctx context.Context, s core.Subcategory) (core.Subcategory, error)
		UpdateSubcategory(ctx context.Context, s core.Subcategory) (core.Subcategory, error)
		DeleteSubcategory(ctx context.Context, id string) error
	}

	TransactionStore interface {
		// ListTransactions returns matching transactions, newest first.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// CreateTransactions stores a batch atomically: either every row is stored or none.
		CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		// UpdateBudget replaces the budget and both of its link sets.
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	RecurringStore interface {
		ListRecurring(ctx context.Context, f RecurringFilter) ([]core.RecurringTemplate, error)
		GetRecurring(ctx context.Context, id string) (core.RecurringTemplate, error)
		CreateRecurring(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error)
		UpdateRecurring(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error)
		DeleteRecurring(ctx context.Context, id string) error
	}

	Repository interface {
		AccountStore
		CatalogStore
		TransactionStore
		BudgetStore
		RecurringStore
		Close() error
	}
)

// TransactionFilter narrows ListTransactions. Zero values do not filter.
type TransactionFilter struct {
	From          core.Date
	To            core.Date
	SubcategoryID string
	AccountID     string
	Limit         int
}

// Matches applies every criterion except Limit.
func (f TransactionFilter) Matches(tx core.Transaction) bool {
	if !f.From.IsEmpty() && tx.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsEmpty() && tx.Date.After(f.To.Time) {
		return false
	}
	if f.SubcategoryID != "" && tx.SubcategoryID != f.SubcategoryID {
		return false
	}
	if f.AccountID != "" && tx.AccountID != f.AccountID {
		return false
	}
	return true
}

type RecurringFilter struct {
	ActiveOnly bool
}
