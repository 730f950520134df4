package analytics

import (
	"fmt"

	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Engine memoizes analytics per snapshot version. Results are shared
// between callers and must not be modified.
type Engine struct {
	cache cache.Cache[any]
}

func NewEngine(c cache.Cache[any]) *Engine {
	return &Engine{cache: c}
}

// Invalidate drops every memoized result.
func (e *Engine) Invalidate() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

func memo[T any](e *Engine, s *core.Snapshot, op string, compute func() T, params ...any) T {
	if e == nil || e.cache == nil {
		return compute()
	}
	key := fmt.Sprintf("%x|%s|%v", s.Version, op, params)
	if v, ok := e.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	v := compute()
	e.cache.Set(key, v)
	return v
}

func (e *Engine) MonthlyTrend(s *core.Snapshot, end period.Month, n int) []MonthTotal {
	return memo(e, s, "trend", func() []MonthTotal {
		return MonthlyTrend(s.Transactions, end, n)
	}, end.Key(), n)
}

func (e *Engine) YearTrend(s *core.Snapshot, year int) []MonthTotal {
	return memo(e, s, "year-trend", func() []MonthTotal {
		return YearTrend(s.Transactions, year)
	}, year)
}

func (e *Engine) YearOverYear(s *core.Snapshot, year int) Comparison {
	return memo(e, s, "yoy", func() Comparison {
		return YearOverYear(s.Transactions, year)
	}, year)
}

// CategoryRanking ranks categories within from..to (inclusive, zero bounds open).
func (e *Engine) CategoryRanking(s *core.Snapshot, from, to core.Date, k int) []CategoryTotal {
	return memo(e, s, "categories", func() []CategoryTotal {
		return CategoryRanking(period.FilterByRange(s.Transactions, from, to), s.Catalog, k)
	}, from.String(), to.String(), k)
}

func (e *Engine) MerchantRanking(s *core.Snapshot, from, to core.Date, k int) []MerchantTotal {
	return memo(e, s, "merchants", func() []MerchantTotal {
		return MerchantRanking(period.FilterByRange(s.Transactions, from, to), k)
	}, from.String(), to.String(), k)
}

func (e *Engine) CategoryTrends(s *core.Snapshot, year, k int) []CategorySeries {
	return memo(e, s, "category-trends", func() []CategorySeries {
		return CategoryTrends(s.Transactions, s.Catalog, year, k)
	}, year, k)
}

func (e *Engine) BudgetAlerts(s *core.Snapshot, today core.Date) []Alert {
	return memo(e, s, "alerts", func() []Alert {
		return BudgetAlerts(s.Budgets, s.Transactions, s.Catalog, today)
	}, today.String())
}

func (e *Engine) Budgets(s *core.Snapshot, asOf core.Date, activeOnly bool) []budget.Progress {
	return memo(e, s, "budgets", func() []budget.Progress {
		return budget.EvaluateAll(s.Budgets, s.Transactions, s.Catalog, asOf, activeOnly)
	}, asOf.String(), activeOnly)
}

func (e *Engine) Summary(s *core.Snapshot, month period.Month) core.MonthSummary {
	return memo(e, s, "summary", func() core.MonthSummary {
		return Summary(s.Transactions, month)
	}, month.Key())
}
