package analytics

import (
	"sort"
	"strings"

	"fintrack/internal/core"
)

const (
	DefaultCategoryTopK = 6
	DefaultMerchantTopK = 10
	DefaultTrendTopK    = 4

	// OtherCategoryID is the synthetic bucket holding everything past the top k.
	OtherCategoryID = "other"
	// UncategorizedID groups transactions whose subcategory is unknown.
	UncategorizedID = "uncategorized"
)

type CategoryTotal struct {
	CategoryID string     `json:"category_id" csv:"category_id"`
	NameFR     string     `json:"name_fr" csv:"name_fr"`
	NameEN     string     `json:"name_en" csv:"name_en"`
	Color      string     `json:"color,omitempty" csv:"-"`
	Total      core.Money `json:"total" csv:"total"`
	Count      int        `json:"count" csv:"count"`
	Percent    float64    `json:"percent" csv:"percent"` // share of the grand total
}

type MerchantTotal struct {
	Name  string     `json:"name" csv:"merchant"`
	Total core.Money `json:"total" csv:"total"`
	Count int        `json:"count" csv:"count"`
}

// CategorySeries is the monthly spend of one category over a year.
type CategorySeries struct {
	CategoryID string         `json:"category_id"`
	NameFR     string         `json:"name_fr"`
	NameEN     string         `json:"name_en"`
	Months     [12]core.Money `json:"months"`
}

// CategoryTotals sums spend per category, largest first. Ties keep the
// order in which categories were first seen.
func CategoryTotals(txs []core.Transaction, catalog *core.Catalog) []CategoryTotal {
	index := map[string]int{}
	out := []CategoryTotal{}
	var grand core.Money
	for _, tx := range txs {
		id, ok := catalog.CategoryOf(tx.SubcategoryID)
		if !ok {
			id = UncategorizedID
		}
		i, seen := index[id]
		if !seen {
			i = len(out)
			index[id] = i
			out = append(out, categoryTotal(id, catalog))
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Count++
		grand = grand.Add(tx.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total.Cents > out[b].Total.Cents })
	for i := range out {
		out[i].Percent = out[i].Total.Percent(grand)
	}
	return out
}

// CategoryRanking keeps the k largest categories and folds the rest into an
// OtherCategoryID bucket, so the totals always add up to the grand total.
func CategoryRanking(txs []core.Transaction, catalog *core.Catalog, k int) []CategoryTotal {
	all := CategoryTotals(txs, catalog)
	if k <= 0 || len(all) <= k {
		return all
	}
	out := append([]CategoryTotal(nil), all[:k]...)
	other := CategoryTotal{CategoryID: OtherCategoryID, NameFR: "Autres", NameEN: "Others"}
	for _, c := range all[k:] {
		other.Total = other.Total.Add(c.Total)
		other.Count += c.Count
		other.Percent += c.Percent
	}
	if other.Total.Cents > 0 {
		out = append(out, other)
	}
	return out
}

func categoryTotal(id string, catalog *core.Catalog) CategoryTotal {
	if id == UncategorizedID {
		return CategoryTotal{CategoryID: id, NameFR: "Non catégorisé", NameEN: "Uncategorized"}
	}
	c, _ := catalog.Category(id)
	return CategoryTotal{CategoryID: id, NameFR: c.NameFR, NameEN: c.NameEN, Color: c.Color}
}

// MerchantRanking groups transactions by trimmed, lower-cased description
// and returns the k largest. The display name is the first one seen.
func MerchantRanking(txs []core.Transaction, k int) []MerchantTotal {
	index := map[string]int{}
	out := []MerchantTotal{}
	for _, tx := range txs {
		name := strings.TrimSpace(tx.Description)
		key := strings.ToLower(name)
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, MerchantTotal{Name: name})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total.Cents > out[b].Total.Cents })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// CategoryTrends returns the month-by-month spend of the k largest categories of year.
func CategoryTrends(txs []core.Transaction, catalog *core.Catalog, year, k int) []CategorySeries {
	var inYear []core.Transaction
	for _, tx := range txs {
		if tx.Date.Year() == year {
			inYear = append(inYear, tx)
		}
	}
	top := CategoryTotals(inYear, catalog)
	if k > 0 && len(top) > k {
		top = top[:k]
	}
	index := make(map[string]int, len(top))
	out := make([]CategorySeries, len(top))
	for i, c := range top {
		index[c.CategoryID] = i
		out[i] = CategorySeries{CategoryID: c.CategoryID, NameFR: c.NameFR, NameEN: c.NameEN}
	}
	for _, tx := range inYear {
		id, ok := catalog.CategoryOf(tx.SubcategoryID)
		if !ok {
			id = UncategorizedID
		}
		if i, ok := index[id]; ok {
			m := tx.Date.Month() - 1
			out[i].Months[m] = out[i].Months[m].Add(tx.Amount)
		}
	}
	return out
}
