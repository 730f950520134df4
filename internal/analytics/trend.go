// Package analytics aggregates transactions into trends, comparisons and
// rankings. All functions are pure; Engine adds memoization per snapshot.
package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

const DefaultTrendMonths = 6

// MonthTotal is the spend of one calendar month.
type MonthTotal struct {
	Label string     `json:"label" csv:"month"` // YYYY-MM
	Year  int        `json:"year" csv:"-"`
	Month int        `json:"month" csv:"-"`
	Total core.Money `json:"total" csv:"total"`
	Count int        `json:"count" csv:"count"`
}

type MonthComparison struct {
	Month      int        `json:"month"`
	Total      core.Money `json:"total"`
	PriorTotal core.Money `json:"prior_total"`
}

// Comparison compares a calendar year with the one before it.
type Comparison struct {
	Year           int                 `json:"year"`
	Months         [12]MonthComparison `json:"months"`
	YearTotal      core.Money          `json:"year_total"`
	PriorYearTotal core.Money          `json:"prior_year_total"`
	PercentChange  float64             `json:"percent_change"` // 0 when the prior year had no spend
	AverageMonthly core.Money          `json:"average_monthly"`
	Count          int                 `json:"count"`
}

// MonthlyTrend returns n consecutive months ending with end, oldest first.
func MonthlyTrend(txs []core.Transaction, end period.Month, n int) []MonthTotal {
	months := period.LastMonths(end, n)
	if len(months) == 0 {
		return []MonthTotal{}
	}
	index := make(map[period.Month]int, len(months))
	out := make([]MonthTotal, len(months))
	for i, m := range months {
		index[m] = i
		out[i] = MonthTotal{Label: m.Key(), Year: m.Year, Month: m.Month}
	}
	for _, tx := range txs {
		if i, ok := index[period.MonthOf(tx.Date)]; ok {
			out[i].Total = out[i].Total.Add(tx.Amount)
			out[i].Count++
		}
	}
	return out
}

// YearTrend returns the twelve months of year.
func YearTrend(txs []core.Transaction, year int) []MonthTotal {
	return MonthlyTrend(txs, period.Month{Year: year, Month: 12}, 12)
}

func YearOverYear(txs []core.Transaction, year int) Comparison {
	c := Comparison{Year: year}
	for i := range c.Months {
		c.Months[i].Month = i + 1
	}
	for _, tx := range txs {
		m := tx.Date.Month() - 1
		switch tx.Date.Year() {
		case year:
			c.Months[m].Total = c.Months[m].Total.Add(tx.Amount)
			c.YearTotal = c.YearTotal.Add(tx.Amount)
			c.Count++
		case year - 1:
			c.Months[m].PriorTotal = c.Months[m].PriorTotal.Add(tx.Amount)
			c.PriorYearTotal = c.PriorYearTotal.Add(tx.Amount)
		}
	}
	c.PercentChange = percentChange(c.YearTotal, c.PriorYearTotal)
	c.AverageMonthly = core.MoneyFromDecimal(c.YearTotal.Decimal().Div(decimal.NewFromInt(12)))
	return c
}

func percentChange(current, prior core.Money) float64 {
	if prior.Cents <= 0 {
		return 0
	}
	return current.Sub(prior).Percent(prior)
}
