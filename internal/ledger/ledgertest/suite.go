// Package ledgertest holds the behaviour every ledger.Repository must share.
// Backends run it from their own tests.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Factory returns a fresh repository seeded with the default taxonomy.
type Factory func(t *testing.T) ledger.Repository

func Run(t *testing.T, newRepo Factory) {
	t.Run("seeded defaults", func(t *testing.T) { testDefaults(t, newRepo(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newRepo(t)) })
	t.Run("batch is atomic", func(t *testing.T) { testBatchAtomic(t, newRepo(t)) })
	t.Run("budgets keep link sets", func(t *testing.T) { testBudgets(t, newRepo(t)) })
	t.Run("recurring templates", func(t *testing.T) { testRecurring(t, newRepo(t)) })
	t.Run("referential rules", func(t *testing.T) { testReferences(t, newRepo(t)) })
}

func tx(desc string, cents int64, d core.Date, sub string) core.Transaction {
	return core.Transaction{Description: desc, Amount: core.Cents(cents), Date: d, SubcategoryID: sub}
}

func testDefaults(t *testing.T, r ledger.Repository) {
	ctx := context.Background()

	accounts, err := r.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].IsDefault)

	cats, err := r.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(ledger.DefaultCategories()))
	for i := 1; i < len(cats); i++ {
		assert.LessOrEqual(t, cats[i-1].SortOrder, cats[i].SortOrder)
	}

	subs, err := r.ListSubcategories(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, len(ledger.DefaultSubcategories()))

	snap, err := ledger.LoadSnapshot(ctx, r)
	require.NoError(t, err)
	_, ok := snap.Catalog.CategoryOf("sub-groceries")
	assert.True(t, ok)
}

func testTransactions(t *testing.T, r ledger.Repository) {
	ctx := context.Background()

	older, err := r.CreateTransaction(ctx, tx("  Loyer  ", 90000, core.NewDate(2024, 3, 1), "sub-rent"))
	require.NoError(t, err)
	assert.NotEmpty(t, older.ID)
	assert.Equal(t, "Loyer", older.Description)

	newer, err := r.CreateTransaction(ctx, tx("Courses", 4550, core.NewDate(2024, 3, 15), "sub-groceries"))
	require.NoError(t, err)

	all, err := r.ListTransactions(ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	limited, err := r.ListTransactions(ctx, ledger.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ID)

	ranged, err := r.ListTransactions(ctx, ledger.TransactionFilter{From: core.NewDate(2024, 3, 10)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, int64(4550), ranged[0].Amount.Cents)

	got, err := r.GetTransaction(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(core.NewDate(2024, 3, 1).Time))

	got.Amount = core.Cents(95000)
	got.Notes = "hausse"
	_, err = r.UpdateTransaction(ctx, got)
	require.NoError(t, err)
	got, err = r.GetTransaction(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(95000), got.Amount.Cents)
	assert.Equal(t, "hausse", got.Notes)

	require.NoError(t, r.DeleteTransaction(ctx, older.ID))
	_, err = r.GetTransaction(ctx, older.ID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	assert.True(t, errors.Is(r.DeleteTransaction(ctx, older.ID), ledger.ErrNotFound))

	_, err = r.CreateTransaction(ctx, tx("Ghost", 100, core.NewDate(2024, 3, 2), "sub-missing"))
	assert.Error(t, err)
}

func testBatchAtomic(t *testing.T, r ledger.Repository) {
	ctx := context.Background()
	d := core.NewDate(2024, 5, 2)

	created, err := r.CreateTransactions(ctx, []core.Transaction{
		tx("A", 100, d, "sub-groceries"),
		tx("B", 200, d, "sub-fuel"),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	_, err = r.CreateTransactions(ctx, []core.Transaction{
		tx("C", 300, d, "sub-groceries"),
		tx("", 400, d, "sub-groceries"),
	})
	require.Error(t, err)

	all, err := r.ListTransactions(ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testBudgets(t *testing.T, r ledger.Repository) {
	ctx := context.Background()

	b, err := r.CreateBudget(ctx, core.Budget{
		Name:           "Maison",
		Limit:          core.Cents(120000),
		Period:         core.PeriodMonthly,
		IsActive:       true,
		CategoryIDs:    core.NewIDSet("cat-housing"),
		SubcategoryIDs: core.NewIDSet("sub-groceries", "sub-fuel"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)

	list, err := r.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"cat-housing"}, list[0].CategoryIDs.Sorted())
	assert.Equal(t, []string{"sub-fuel", "sub-groceries"}, list[0].SubcategoryIDs.Sorted())

	b.SubcategoryIDs = core.NewIDSet("sub-rent")
	b.CategoryIDs = nil
	b.Period = core.PeriodYearly
	_, err = r.UpdateBudget(ctx, b)
	require.NoError(t, err)

	list, err = r.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.PeriodYearly, list[0].Period)
	assert.Zero(t, list[0].CategoryIDs.Len())
	assert.Equal(t, []string{"sub-rent"}, list[0].SubcategoryIDs.Sorted())

	_, err = r.CreateBudget(ctx, core.Budget{Name: "bad", Limit: core.Cents(1), Period: "weekly"})
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)

	require.NoError(t, r.DeleteBudget(ctx, b.ID))
	assert.ErrorIs(t, r.DeleteBudget(ctx, b.ID), ledger.ErrNotFound)
}

func testRecurring(t *testing.T, r ledger.Repository) {
	ctx := context.Background()

	rt, err := r.CreateRecurring(ctx, core.RecurringTemplate{
		Description:   "Netflix",
		Amount:        core.Cents(1399),
		Frequency:     core.Monthly,
		DayOfMonth:    core.LastDayOfMonth,
		SubcategoryID: "sub-subscriptions",
		StartDate:     core.NewDate(2024, 1, 1),
		IsActive:      true,
	})
	require.NoError(t, err)

	_, err = r.CreateRecurring(ctx, core.RecurringTemplate{
		Description:   "Gym",
		Amount:        core.Cents(3000),
		Frequency:     core.Monthly,
		DayOfMonth:    5,
		SubcategoryID: "sub-outings",
	})
	require.NoError(t, err)

	all, err := r.ListRecurring(ctx, ledger.RecurringFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := r.ListRecurring(ctx, ledger.RecurringFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, rt.ID, active[0].ID)

	got, err := r.GetRecurring(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LastDayOfMonth, got.DayOfMonth)
	assert.True(t, got.StartDate.Equal(core.NewDate(2024, 1, 1).Time))
	assert.True(t, got.EndDate.IsEmpty())

	got.IsActive = false
	_, err = r.UpdateRecurring(ctx, got)
	require.NoError(t, err)
	active, err = r.ListRecurring(ctx, ledger.RecurringFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = r.CreateRecurring(ctx, core.RecurringTemplate{
		Description: "bad", Amount: core.Cents(1), Frequency: core.Monthly, DayOfMonth: 30, SubcategoryID: "sub-rent",
	})
	assert.ErrorIs(t, err, core.ErrInvalidDayOfMonth)

	require.NoError(t, r.DeleteRecurring(ctx, rt.ID))
	_, err = r.GetRecurring(ctx, rt.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func testReferences(t *testing.T, r ledger.Repository) {
	ctx := context.Background()

	acc, err := r.CreateAccount(ctx, core.Account{Name: "Livret", Bank: "BNP", SortOrder: 2})
	require.NoError(t, err)

	spent := tx("Essence", 6000, core.NewDate(2024, 4, 4), "sub-fuel")
	spent.AccountID = acc.ID
	spent, err = r.CreateTransaction(ctx, spent)
	require.NoError(t, err)

	assert.ErrorIs(t, r.DeleteSubcategory(ctx, "sub-fuel"), ledger.ErrInUse)
	assert.ErrorIs(t, r.DeleteCategory(ctx, "cat-transport"), ledger.ErrInUse)

	// Unreferenced category goes away with its subcategories.
	require.NoError(t, r.DeleteCategory(ctx, "cat-health"))
	subs, err := r.ListSubcategories(ctx)
	require.NoError(t, err)
	for _, s := range subs {
		assert.NotEqual(t, "cat-health", s.CategoryID)
	}

	require.NoError(t, r.DeleteAccount(ctx, acc.ID))
	got, err := r.GetTransaction(ctx, spent.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AccountID)

	_, err = r.UpdateAccount(ctx, core.Account{ID: "acc-missing", Name: "x"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = r.CreateSubcategory(ctx, core.Subcategory{CategoryID: "cat-missing", NameFR: "x"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	sub, err := r.CreateSubcategory(ctx, core.Subcategory{CategoryID: "cat-misc", NameFR: "Cadeaux", NameEN: "Gifts", SortOrder: 9})
	require.NoError(t, err)
	sub.NameEN = "Presents"
	_, err = r.UpdateSubcategory(ctx, sub)
	require.NoError(t, err)
	require.NoError(t, r.DeleteSubcategory(ctx, sub.ID))
}
