package services

import (
	"context"

	"fintrack/internal/analytics"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/period"
	"fintrack/internal/recurrence"
)

const recentTransactions = 5

// Dashboard is the home-page view of one month.
type Dashboard struct {
	Month      string                    `json:"month"`
	Summary    core.MonthSummary         `json:"summary"`
	Alerts     []analytics.Alert         `json:"alerts"`
	Trend      []analytics.MonthTotal    `json:"trend"`
	Categories []analytics.CategoryTotal `json:"categories"`
	Merchants  []analytics.MerchantTotal `json:"merchants"`
	Pending    []recurrence.Occurrence   `json:"pending"`
	Recent     []core.Transaction        `json:"recent"`
}

// DashboardService serves read-only analytics over ledger snapshots.
type DashboardService struct {
	ledger      *LedgerService
	engine      *analytics.Engine
	trendMonths int
}

func NewDashboardService(ledger *LedgerService, engine *analytics.Engine, trendMonths int) *DashboardService {
	if trendMonths <= 0 {
		trendMonths = analytics.DefaultTrendMonths
	}
	return &DashboardService{ledger: ledger, engine: engine, trendMonths: trendMonths}
}

func (s *DashboardService) TrendMonths() int { return s.trendMonths }

// Dashboard builds the view of month. Alerts and pending occurrences use today.
func (s *DashboardService) Dashboard(ctx context.Context, month period.Month, today core.Date) (Dashboard, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	recent := snap.Transactions
	if len(recent) > recentTransactions {
		recent = recent[:recentTransactions]
	}

	return Dashboard{
		Month:      month.Key(),
		Summary:    s.engine.Summary(snap, month),
		Alerts:     s.engine.BudgetAlerts(snap, today),
		Trend:      s.engine.MonthlyTrend(snap, month, s.trendMonths),
		Categories: s.engine.CategoryRanking(snap, month.Start(), month.End(), analytics.DefaultCategoryTopK),
		Merchants:  s.engine.MerchantRanking(snap, month.Start(), month.End(), analytics.DefaultMerchantTopK),
		Pending:    recurrence.Pending(snap.Recurring, snap.Transactions, today),
		Recent:     recent,
	}, nil
}

func (s *DashboardService) Budgets(ctx context.Context, asOf core.Date, activeOnly bool) ([]budget.Progress, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Budgets(snap, asOf, activeOnly), nil
}

func (s *DashboardService) Trend(ctx context.Context, end period.Month, months int) ([]analytics.MonthTotal, error) {
	if months <= 0 {
		months = s.trendMonths
	}
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.MonthlyTrend(snap, end, months), nil
}

func (s *DashboardService) YearOverYear(ctx context.Context, year int) (analytics.Comparison, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return analytics.Comparison{}, err
	}
	return s.engine.YearOverYear(snap, year), nil
}

// CategoryRanking ranks categories over [from, to]; zero bounds are open.
func (s *DashboardService) CategoryRanking(ctx context.Context, from, to core.Date, k int) ([]analytics.CategoryTotal, error) {
	if k <= 0 {
		k = analytics.DefaultCategoryTopK
	}
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.CategoryRanking(snap, from, to, k), nil
}

func (s *DashboardService) MerchantRanking(ctx context.Context, from, to core.Date, k int) ([]analytics.MerchantTotal, error) {
	if k <= 0 {
		k = analytics.DefaultMerchantTopK
	}
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.MerchantRanking(snap, from, to, k), nil
}

func (s *DashboardService) CategoryTrends(ctx context.Context, year, k int) ([]analytics.CategorySeries, error) {
	if k <= 0 {
		k = analytics.DefaultTrendTopK
	}
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.CategoryTrends(snap, year, k), nil
}
