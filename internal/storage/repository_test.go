package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/ledgertest"
)

func openTestRepo(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryConformance(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Repository {
		return openTestRepo(t, filepath.Join(t.TempDir(), "ledger.db"))
	})
}

func TestReopenKeepsDataWithoutReseeding(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	repo, err := NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Description: "Boulangerie", Amount: core.Cents(320), Date: core.NewDate(2024, 2, 29), SubcategoryID: "sub-groceries",
	})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteSubcategory(ctx, "sub-doctor"))
	require.NoError(t, repo.Close())

	repo = openTestRepo(t, path)
	subs, err := repo.ListSubcategories(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, len(ledger.DefaultSubcategories())-1)

	txs, err := repo.ListTransactions(ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-02-29", txs[0].Date.String())
}

func TestDeleteCategoryDropsBudgetLinks(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "ledger.db"))

	b, err := repo.CreateBudget(ctx, core.Budget{
		Name: "Santé", Limit: core.Cents(10000), Period: core.PeriodYearly, IsActive: true,
		CategoryIDs:    core.NewIDSet("cat-health"),
		SubcategoryIDs: core.NewIDSet("sub-pharmacy", "sub-groceries"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCategory(ctx, "cat-health"))

	budgets, err := repo.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, b.ID, budgets[0].ID)
	assert.Zero(t, budgets[0].CategoryIDs.Len())
	assert.Equal(t, []string{"sub-groceries"}, budgets[0].SubcategoryIDs.Sorted())
}

func TestBudgetLinkToUnknownSubcategoryRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "ledger.db"))

	_, err := repo.CreateBudget(ctx, core.Budget{
		Name: "x", Limit: core.Cents(100), Period: core.PeriodMonthly,
		SubcategoryIDs: core.NewIDSet("sub-nope"),
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	budgets, err := repo.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	second, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
