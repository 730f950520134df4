// Package recurrence decides when recurring templates are due and whether
// the current cycle has already been recorded.
//
// Each frequency has its own OccurrenceRule that computes the expected date
// of a template inside a given month.
package recurrence

import (
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

// OccurrenceRule computes the expected occurrence of a template in a month.
type OccurrenceRule interface {
	// Occurrence returns the expected date in month, or false when the
	// template has no occurrence there.
	Occurrence(t core.RecurringTemplate, month period.Month) (core.Date, bool)
}

// DayOfMonthRule fires every month on DayOfMonth, clamped to the month's
// last day. LastDayOfMonth always means the last calendar day.
type DayOfMonthRule struct{}

func (DayOfMonthRule) Occurrence(t core.RecurringTemplate, month period.Month) (core.Date, bool) {
	return clampedDay(t.DayOfMonth, month), true
}

// YearlyRule fires once a year, in the month of StartDate (January when
// the template has no start date).
type YearlyRule struct{}

func (YearlyRule) Occurrence(t core.RecurringTemplate, month period.Month) (core.Date, bool) {
	anchor := 1
	if !t.StartDate.IsEmpty() {
		anchor = t.StartDate.Month()
	}
	if month.Month != anchor {
		return core.Date{}, false
	}
	day := t.DayOfMonth
	if day == 0 {
		day = 1
	}
	return clampedDay(day, month), true
}

// UnscheduledRule never produces an occurrence. Weekly and biweekly
// templates are stored but not scheduled.
type UnscheduledRule struct{}

func (UnscheduledRule) Occurrence(core.RecurringTemplate, period.Month) (core.Date, bool) {
	return core.Date{}, false
}

func clampedDay(day int, month period.Month) core.Date {
	last := core.DaysInMonth(month.Year, month.Month)
	if day == core.LastDayOfMonth || day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return core.NewDate(month.Year, month.Month, day)
}

// Trimestrial templates follow the monthly rule.
var rules = map[core.Frequency]OccurrenceRule{
	core.Monthly:     DayOfMonthRule{},
	core.Trimestrial: DayOfMonthRule{},
	core.Yearly:      YearlyRule{},
	core.Weekly:      UnscheduledRule{},
	core.Biweekly:    UnscheduledRule{},
}

// RuleFor returns the occurrence rule of a frequency.
func RuleFor(f core.Frequency) (OccurrenceRule, error) {
	rule, ok := rules[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return rule, nil
}
