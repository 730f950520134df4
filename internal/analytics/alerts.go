package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Alert flags an active budget at or above the warning threshold.
type Alert struct {
	BudgetID   string     `json:"budget_id"`
	Name       string     `json:"name"`
	Color      string     `json:"color,omitempty"`
	Spent      core.Money `json:"spent"`
	Limit      core.Money `json:"limit"`
	Percentage float64    `json:"percentage"`
	IsOver     bool       `json:"is_over"`
}

// BudgetAlerts evaluates active budgets against the month of today only,
// including yearly budgets.
func BudgetAlerts(budgets []core.Budget, txs []core.Transaction, catalog *core.Catalog, today core.Date) []Alert {
	out := []Alert{}
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		p := budget.EvaluateMonth(b, txs, catalog, today)
		if p.Status == budget.StatusNormal {
			continue
		}
		out = append(out, Alert{
			BudgetID:   b.ID,
			Name:       b.Name,
			Color:      b.Color,
			Spent:      p.Spent,
			Limit:      b.Limit,
			Percentage: p.Percentage,
			IsOver:     p.IsOver(),
		})
	}
	return out
}

// Summary computes the headline figures of month and its change against the previous month.
func Summary(txs []core.Transaction, month period.Month) core.MonthSummary {
	s := core.MonthSummary{Year: month.Year, Month: month.Month}
	prev := month.Prev()
	for _, tx := range txs {
		switch {
		case month.Contains(tx.Date):
			s.Total = s.Total.Add(tx.Amount)
			s.Count++
		case prev.Contains(tx.Date):
			s.PreviousTotal = s.PreviousTotal.Add(tx.Amount)
		}
	}
	if s.Count > 0 {
		s.AverageTransaction = core.MoneyFromDecimal(s.Total.Decimal().Div(decimal.NewFromInt(int64(s.Count))))
	}
	days := period.DaysInMonth(month.Year, month.Month)
	s.DailyAverage = core.MoneyFromDecimal(s.Total.Decimal().Div(decimal.NewFromInt(int64(days))))
	s.PercentChange = percentChange(s.Total, s.PreviousTotal)
	return s
}
