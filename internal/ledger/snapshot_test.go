package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

type stubReader struct {
	failBudgets bool
}

func (stubReader) ListAccounts(context.Context) ([]core.Account, error) {
	return []core.Account{DefaultAccount()}, nil
}
func (stubReader) ListCategories(context.Context) ([]core.Category, error) {
	return DefaultCategories(), nil
}
func (stubReader) ListSubcategories(context.Context) ([]core.Subcategory, error) {
	return DefaultSubcategories(), nil
}
func (stubReader) ListTransactions(context.Context, TransactionFilter) ([]core.Transaction, error) {
	return []core.Transaction{{ID: "t1", Description: "Rent", Amount: core.Cents(1), Date: core.NewDate(2024, 1, 1), SubcategoryID: "sub-rent"}}, nil
}
func (s stubReader) ListBudgets(context.Context) ([]core.Budget, error) {
	if s.failBudgets {
		return nil, errors.New("boom")
	}
	return nil, nil
}
func (stubReader) ListRecurring(context.Context, RecurringFilter) ([]core.RecurringTemplate, error) {
	return nil, nil
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), stubReader{})
	require.NoError(t, err)
	assert.Len(t, snap.Transactions, 1)
	cat, ok := snap.Catalog.CategoryOf("sub-rent")
	assert.True(t, ok)
	assert.Equal(t, "cat-housing", cat)
	assert.NotZero(t, snap.Version)
}

func TestLoadSnapshotFailsAsUnit(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), stubReader{failBudgets: true})
	assert.Nil(t, snap)
	assert.ErrorContains(t, err, "load budgets")
}

func TestTransactionFilterMatches(t *testing.T) {
	tx := core.Transaction{Date: core.NewDate(2024, 3, 10), SubcategoryID: "s", AccountID: "a"}
	tests := []struct {
		name string
		f    TransactionFilter
		want bool
	}{
		{"empty", TransactionFilter{}, true},
		{"inside range", TransactionFilter{From: core.NewDate(2024, 3, 10), To: core.NewDate(2024, 3, 10)}, true},
		{"before from", TransactionFilter{From: core.NewDate(2024, 3, 11)}, false},
		{"after to", TransactionFilter{To: core.NewDate(2024, 3, 9)}, false},
		{"other subcategory", TransactionFilter{SubcategoryID: "x"}, false},
		{"same account", TransactionFilter{AccountID: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Matches(tx))
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	catalog := core.NewCatalog(DefaultCategories(), DefaultSubcategories())
	for _, s := range DefaultSubcategories() {
		require.NoError(t, s.Validate())
		_, ok := catalog.Category(s.CategoryID)
		assert.True(t, ok, s.ID)
	}
	for _, c := range DefaultCategories() {
		assert.NotEmpty(t, catalog.SubcategoriesOf(c.ID), c.ID)
	}
}
