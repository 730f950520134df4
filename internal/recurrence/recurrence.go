package recurrence

import (
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Occurrence is a due but not yet recorded cycle of a template.
type Occurrence struct {
	Template     core.RecurringTemplate `json:"template"`
	ExpectedDate core.Date              `json:"expected_date"`
}

// IsActive reports whether t is enabled and today falls inside [StartDate, EndDate].
func IsActive(t core.RecurringTemplate, today core.Date) bool {
	if !t.IsActive {
		return false
	}
	if !t.StartDate.IsEmpty() && t.StartDate.After(today.Time) {
		return false
	}
	if !t.EndDate.IsEmpty() && t.EndDate.Before(today.Time) {
		return false
	}
	return true
}

// Expected returns the expected date of t in the month of today. There is no
// occurrence for inactive templates or unscheduled frequencies. The start and
// end dates only gate activity against today, so a template starting on the
// 20th with day 5 still expects the 5th of its first month.
func Expected(t core.RecurringTemplate, today core.Date) (core.Date, bool) {
	if !IsActive(t, today) {
		return core.Date{}, false
	}
	rule, err := RuleFor(t.Frequency)
	if err != nil {
		return core.Date{}, false
	}
	d, ok := rule.Occurrence(t, period.MonthOf(today))
	if !ok {
		return core.Date{}, false
	}
	return d, true
}

// IsRecorded reports whether a transaction with the template's description
// and amount already exists in the month of date.
func IsRecorded(t core.RecurringTemplate, date core.Date, txs []core.Transaction) bool {
	desc := strings.TrimSpace(t.Description)
	for _, tx := range txs {
		if tx.Amount == t.Amount && strings.TrimSpace(tx.Description) == desc && tx.Date.SameMonth(date) {
			return true
		}
	}
	return false
}

// IsPending reports whether t is due on or before today and not yet recorded.
func IsPending(t core.RecurringTemplate, txs []core.Transaction, today core.Date) (core.Date, bool) {
	d, ok := Expected(t, today)
	if !ok || !d.OnOrBefore(today) {
		return core.Date{}, false
	}
	if IsRecorded(t, d, txs) {
		return core.Date{}, false
	}
	return d, true
}

// Pending lists pending occurrences in template order.
func Pending(templates []core.RecurringTemplate, txs []core.Transaction, today core.Date) []Occurrence {
	out := []Occurrence{}
	for _, t := range templates {
		if d, ok := IsPending(t, txs, today); ok {
			out = append(out, Occurrence{Template: t, ExpectedDate: d})
		}
	}
	return out
}

// BuildTransaction creates the transaction recording t on date.
func BuildTransaction(t core.RecurringTemplate, date core.Date) core.Transaction {
	return core.Transaction{
		Description:   t.Description,
		Amount:        t.Amount,
		Date:          date,
		AccountID:     t.AccountID,
		SubcategoryID: t.SubcategoryID,
		Notes:         t.Notes,
	}.Normalize()
}
