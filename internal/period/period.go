// Package period selects transactions by calendar window and provides month
// arithmetic for rolling windows.
package period

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Month identifies a calendar month.
type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

func MonthOf(d core.Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// Key renders the month as YYYY-MM.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) String() string { return m.Key() }

func (m Month) Valid() bool {
	return m.Month >= 1 && m.Month <= 12 && m.Year > 0
}

func (m Month) Prev() Month { return m.Add(-1) }

func (m Month) Next() Month { return m.Add(1) }

// Add moves n months forward (or backward when n is negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, time.Month(m.Month)+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: int(t.Month())}
}

func (m Month) Start() core.Date { return MonthStart(m.Year, m.Month) }

func (m Month) End() core.Date { return MonthEnd(m.Year, m.Month) }

func (m Month) Contains(d core.Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func MonthStart(year, month int) core.Date {
	return core.NewDate(year, month, 1)
}

func MonthEnd(year, month int) core.Date {
	return core.NewDate(year, month, core.DaysInMonth(year, month))
}

func DaysInMonth(year, month int) int {
	return core.DaysInMonth(year, month)
}

// LastMonths returns n months ending with end, oldest first.
func LastMonths(end Month, n int) []Month {
	if n <= 0 {
		return nil
	}
	out := make([]Month, n)
	for i := 0; i < n; i++ {
		out[i] = end.Add(i - n + 1)
	}
	return out
}

// FilterByMonth keeps transactions dated in the given month. Input order is preserved.
func FilterByMonth(txs []core.Transaction, month, year int) []core.Transaction {
	return filter(txs, func(d core.Date) bool {
		return d.Year() == year && d.Month() == month
	})
}

func FilterByYear(txs []core.Transaction, year int) []core.Transaction {
	return filter(txs, func(d core.Date) bool { return d.Year() == year })
}

// FilterByRange keeps transactions with from <= date <= to. A zero bound is open.
func FilterByRange(txs []core.Transaction, from, to core.Date) []core.Transaction {
	return filter(txs, func(d core.Date) bool {
		if !from.IsEmpty() && d.Before(from.Time) {
			return false
		}
		if !to.IsEmpty() && d.After(to.Time) {
			return false
		}
		return true
	})
}

func filter(txs []core.Transaction, keep func(core.Date) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if keep(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
