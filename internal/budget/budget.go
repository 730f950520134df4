// Package budget computes spending progress of budgets against their
// linked categories and subcategories.
package budget

import (
	"fintrack/internal/core"
	"fintrack/internal/period"
)

// WarningPercent is the percentage from which a budget is flagged as close to its limit.
const WarningPercent = 80

type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// LinkedName is the display name of a linked category or subcategory.
type LinkedName struct {
	ID     string `json:"id"`
	NameFR string `json:"name_fr"`
	NameEN string `json:"name_en"`
}

// Progress is a budget evaluated over its current window.
type Progress struct {
	Budget              core.Budget  `json:"budget"`
	Spent               core.Money   `json:"spent"`
	Remaining           core.Money   `json:"remaining"` // negative when over the limit
	Percentage          float64      `json:"percentage"`
	Status              Status       `json:"status"`
	LinkedCategories    []LinkedName `json:"linked_categories"`
	LinkedSubcategories []LinkedName `json:"linked_subcategories"`
}

func (p Progress) IsOver() bool    { return p.Status == StatusOver }
func (p Progress) IsWarning() bool { return p.Status == StatusWarning }

// Matches reports whether tx counts toward b. A transaction counts when the
// category of its subcategory is linked, or its subcategory is linked
// directly. Either link is enough; the more specific one does not take
// precedence. Transactions with an unknown subcategory never match.
func Matches(b core.Budget, tx core.Transaction, catalog *core.Catalog) bool {
	categoryID, ok := catalog.CategoryOf(tx.SubcategoryID)
	if !ok {
		return false
	}
	return b.CategoryIDs.Has(categoryID) || b.SubcategoryIDs.Has(tx.SubcategoryID)
}

// Spent sums the amounts of txs matching b, without any date selection.
func Spent(b core.Budget, txs []core.Transaction, catalog *core.Catalog) core.Money {
	var total core.Money
	if !b.HasLinks() {
		return total
	}
	for _, tx := range txs {
		if Matches(b, tx, catalog) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Window returns the transactions inside the budget period containing asOf.
func Window(b core.Budget, txs []core.Transaction, asOf core.Date) []core.Transaction {
	if b.Period == core.PeriodYearly {
		return period.FilterByYear(txs, asOf.Year())
	}
	return period.FilterByMonth(txs, asOf.Month(), asOf.Year())
}

// Evaluate computes b's progress for the month (monthly) or year (yearly) of asOf.
func Evaluate(b core.Budget, txs []core.Transaction, catalog *core.Catalog, asOf core.Date) Progress {
	return progressFor(b, Spent(b, Window(b, txs, asOf), catalog), catalog)
}

// EvaluateMonth evaluates b against the month of asOf regardless of its period.
func EvaluateMonth(b core.Budget, txs []core.Transaction, catalog *core.Catalog, asOf core.Date) Progress {
	month := period.FilterByMonth(txs, asOf.Month(), asOf.Year())
	return progressFor(b, Spent(b, month, catalog), catalog)
}

// EvaluateAll evaluates budgets in input order. With activeOnly, inactive budgets are skipped.
func EvaluateAll(budgets []core.Budget, txs []core.Transaction, catalog *core.Catalog, asOf core.Date, activeOnly bool) []Progress {
	out := make([]Progress, 0, len(budgets))
	for _, b := range budgets {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, Evaluate(b, txs, catalog, asOf))
	}
	return out
}

func progressFor(b core.Budget, spent core.Money, catalog *core.Catalog) Progress {
	return Progress{
		Budget:              b,
		Spent:               spent,
		Remaining:           b.Limit.Sub(spent),
		Percentage:          spent.Percent(b.Limit),
		Status:              statusOf(spent, b.Limit),
		LinkedCategories:    linkedCategories(b, catalog),
		LinkedSubcategories: linkedSubcategories(b, catalog),
	}
}

// statusOf compares in cents so that thresholds are exact.
func statusOf(spent, limit core.Money) Status {
	if limit.Cents <= 0 {
		return StatusNormal
	}
	switch {
	case spent.Cents >= limit.Cents:
		return StatusOver
	case spent.Cents*100 >= limit.Cents*WarningPercent:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func linkedCategories(b core.Budget, catalog *core.Catalog) []LinkedName {
	out := []LinkedName{}
	for _, c := range catalog.Categories() {
		if b.CategoryIDs.Has(c.ID) {
			out = append(out, LinkedName{ID: c.ID, NameFR: c.NameFR, NameEN: c.NameEN})
		}
	}
	return out
}

func linkedSubcategories(b core.Budget, catalog *core.Catalog) []LinkedName {
	out := []LinkedName{}
	for _, s := range catalog.Subcategories() {
		if b.SubcategoryIDs.Has(s.ID) {
			out = append(out, LinkedName{ID: s.ID, NameFR: s.NameFR, NameEN: s.NameEN})
		}
	}
	return out
}
