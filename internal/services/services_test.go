package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/period"
)

type fakePublisher struct {
	mu      sync.Mutex
	created []*amqp.TransactionCreated
	pending []*amqp.RecurringPending
	err     error
}

func (f *fakePublisher) PublishTransactionCreated(_ context.Context, msg *amqp.TransactionCreated) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, msg)
	return nil
}

func (f *fakePublisher) PublishRecurringPending(_ context.Context, msg *amqp.RecurringPending) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pending = append(f.pending, msg)
	return nil
}

func (f *fakePublisher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created), len(f.pending)
}

func newTestLedger(events EventPublisher) (*LedgerService, *analytics.Engine) {
	engine := analytics.NewEngine(cache.NewLRUCache[any](32, time.Minute))
	return NewLedgerService(memory.New(), events, engine), engine
}

func groceries(desc string, cents int64, d core.Date) core.Transaction {
	return core.Transaction{Description: desc, Amount: core.Cents(cents), Date: d, SubcategoryID: "sub-groceries"}
}

func TestLedgerServicePublishesCreated(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestLedger(pub)

	tx, err := svc.CreateTransaction(ctx, groceries("Delhaize", 4210, core.NewDate(2024, 3, 2)), amqp.SourceManual)
	require.NoError(t, err)

	require.Len(t, pub.created, 1)
	assert.Equal(t, tx.ID, pub.created[0].ID)
	assert.Equal(t, amqp.SourceManual, pub.created[0].Source)

	require.NoError(t, svc.DeleteTransaction(ctx, tx.ID))
	assert.ErrorIs(t, svc.DeleteTransaction(ctx, tx.ID), ledger.ErrNotFound)
}

func TestLedgerServiceSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLedger(&fakePublisher{err: errors.New("broker down")})

	_, err := svc.CreateTransaction(ctx, groceries("Aldi", 1500, core.NewDate(2024, 3, 2)), amqp.SourceManual)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Transactions, 1)
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	svc, _ := newTestLedger(nil)
	_, err := svc.CreateTransaction(context.Background(), groceries("Lidl", 999, core.NewDate(2024, 1, 3)), amqp.SourceManual)
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestRecurringProcessorFlow(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestLedger(pub)
	proc := NewRecurringProcessor(svc, pub)

	rent, err := svc.Repository().CreateRecurring(ctx, core.RecurringTemplate{
		Description: "Loyer", Amount: core.Cents(90000), Frequency: core.Monthly, DayOfMonth: 5,
		SubcategoryID: "sub-rent", IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.Repository().CreateRecurring(ctx, core.RecurringTemplate{
		Description: "Assurance", Amount: core.Cents(30000), Frequency: core.Monthly, DayOfMonth: 20,
		SubcategoryID: "sub-doctor", IsActive: true,
	})
	require.NoError(t, err)

	today := core.NewDate(2024, 3, 10)

	pending, err := proc.Pending(ctx, today)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rent.ID, pending[0].Template.ID)
	assert.Equal(t, "2024-03-05", pending[0].ExpectedDate.String())

	sent, err := proc.NotifyPending(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	tx, err := proc.Generate(ctx, rent.ID, today)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", tx.Date.String())
	assert.Equal(t, int64(90000), tx.Amount.Cents)
	require.Len(t, pub.created, 1)
	assert.Equal(t, amqp.SourceRecurring, pub.created[0].Source)

	pending, err = proc.Pending(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = proc.Generate(ctx, rent.ID, today)
	assert.ErrorIs(t, err, ErrAlreadyRecorded)

	_, err = proc.Generate(ctx, "missing", today)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRecurringWatcherLifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestLedger(pub)
	_, err := svc.Repository().CreateRecurring(ctx, core.RecurringTemplate{
		Description: "Netflix", Amount: core.Cents(1399), Frequency: core.Monthly, DayOfMonth: 1,
		SubcategoryID: "sub-subscriptions", IsActive: true,
	})
	require.NoError(t, err)

	w := NewRecurringWatcher(NewRecurringProcessor(svc, pub), WatcherConfig{Interval: time.Hour, RunOnStart: true})
	w.now = func() time.Time { return time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(ctx))

	require.Eventually(t, func() bool {
		_, n := pub.counts()
		return n == 1
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop(stopCtx))

	created, _ := pub.counts()
	assert.Zero(t, created, "watcher must never record transactions")
}

func TestImportServicePreviewAndCommit(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestLedger(pub)
	imp := NewImportService(svc, 2)

	csv := "Date;Description;Montant;Catégorie\n" +
		"01/03/2024;Carrefour;-45,20;Courses\n" +
		"02/03/2024;Shell;60,00;Carburant\n" +
		"03/03/2024;Cinéma;12,50;Loisirs\n" +
		"04/03/2024;Mystère;10,00;Inconnu\n" +
		"xx;Broken;abc;Courses\n"
	table, err := importer.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	preview, err := imp.Preview(ctx, table, nil)
	require.NoError(t, err)
	assert.True(t, preview.Detected)
	assert.Equal(t, "Montant", preview.Mapping.Amount)
	assert.Equal(t, 5, preview.Result.Total)
	assert.Equal(t, 4, preview.Result.Valid())
	assert.Len(t, preview.Result.Unresolved(), 1)
	assert.NotEmpty(t, preview.Result.Errors)

	var progress []importer.Progress
	res, err := imp.Commit(ctx, preview.Result.Candidates, func(p importer.Progress) { progress = append(progress, p) })
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, progress, 2)

	created, _ := pub.counts()
	assert.Equal(t, 3, created)
	for _, msg := range pub.created {
		assert.Equal(t, amqp.SourceImport, msg.Source)
	}

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 3)
	assert.Equal(t, int64(4520), snap.Transactions[2].Amount.Cents)
}

func TestImportServiceExplicitMapping(t *testing.T) {
	table := importer.NewTable([][]string{
		{"When", "What", "How much"},
		{"2024-02-01", "Boulangerie", "3.20"},
	})
	svc, _ := newTestLedger(nil)
	imp := NewImportService(svc, 0)

	preview, err := imp.Preview(context.Background(), table, &importer.Mapping{Date: "When", Description: "What", Amount: "How much"})
	require.NoError(t, err)
	assert.False(t, preview.Detected)
	require.Len(t, preview.Result.Candidates, 1)
	assert.Equal(t, int64(320), preview.Result.Candidates[0].Amount.Cents)

	_, err = imp.Preview(context.Background(), table, nil)
	assert.ErrorIs(t, err, importer.ErrIncompleteMapping)
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	svc, engine := newTestLedger(nil)
	dash := NewDashboardService(svc, engine, 3)
	repo := svc.Repository()

	for _, tx := range []core.Transaction{
		groceries("Carrefour", 30000, core.NewDate(2024, 3, 3)),
		groceries("Carrefour", 15000, core.NewDate(2024, 3, 12)),
		groceries("Delhaize", 10000, core.NewDate(2024, 2, 10)),
		{Description: "Shell", Amount: core.Cents(5000), Date: core.NewDate(2024, 3, 8), SubcategoryID: "sub-fuel"},
	} {
		_, err := svc.CreateTransaction(ctx, tx, amqp.SourceManual)
		require.NoError(t, err)
	}
	_, err := repo.CreateBudget(ctx, core.Budget{
		Name: "Courses", Limit: core.Cents(50000), Period: core.PeriodMonthly, IsActive: true,
		CategoryIDs: core.NewIDSet("cat-food"),
	})
	require.NoError(t, err)

	today := core.NewDate(2024, 3, 20)
	d, err := dash.Dashboard(ctx, period.MonthOf(today), today)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", d.Month)
	assert.Equal(t, int64(50000), d.Summary.Total.Cents)
	assert.Equal(t, 3, d.Summary.Count)
	assert.Equal(t, int64(10000), d.Summary.PreviousTotal.Cents)
	require.Len(t, d.Alerts, 1)
	assert.InDelta(t, 90.0, d.Alerts[0].Percentage, 0.001)
	assert.False(t, d.Alerts[0].IsOver)
	require.Len(t, d.Trend, 3)
	assert.Equal(t, "2024-01", d.Trend[0].Label)
	require.NotEmpty(t, d.Categories)
	assert.Equal(t, "cat-food", d.Categories[0].CategoryID)
	require.NotEmpty(t, d.Merchants)
	assert.Equal(t, "Carrefour", d.Merchants[0].Name)
	assert.Equal(t, 2, d.Merchants[0].Count)
	assert.Len(t, d.Recent, 4)
	assert.Equal(t, "2024-03-12", d.Recent[0].Date.String())

	budgets, err := dash.Budgets(ctx, today, true)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, int64(45000), budgets[0].Spent.Cents)

	yoy, err := dash.YearOverYear(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), yoy.YearTotal.Cents)
}
