package importer

import (
	"strings"

	"fintrack/internal/core"
)

// ResolveSubcategory matches free category text against the catalog, trying
// in order: exact subcategory name, subcategory substring in either
// direction, exact category name, category name containing the text. A
// category match resolves to its first subcategory by sort order.
func ResolveSubcategory(text string, catalog *core.Catalog) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return "", false
	}
	subs := catalog.Subcategories()

	for _, s := range subs {
		if equalsAny(needle, s.NameFR, s.NameEN) {
			return s.ID, true
		}
	}
	for _, s := range subs {
		if overlapsAny(needle, s.NameFR, s.NameEN) {
			return s.ID, true
		}
	}

	cats := catalog.Categories()
	for _, c := range cats {
		if equalsAny(needle, c.NameFR, c.NameEN) {
			return firstSubcategory(c.ID, catalog)
		}
	}
	for _, c := range cats {
		if containsAny(needle, c.NameFR, c.NameEN) {
			return firstSubcategory(c.ID, catalog)
		}
	}
	return "", false
}

func firstSubcategory(categoryID string, catalog *core.Catalog) (string, bool) {
	subs := catalog.SubcategoriesOf(categoryID)
	if len(subs) == 0 {
		return "", false
	}
	return subs[0].ID, true
}

// ResolveAccount matches free account text against account names and bank
// labels. Empty or unmatched text falls back to the default account, then
// the first account, then "".
func ResolveAccount(text string, accounts []core.Account) string {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle != "" {
		for _, a := range accounts {
			if overlapsAny(needle, a.Name, a.Bank) {
				return a.ID
			}
		}
	}
	for _, a := range accounts {
		if a.IsDefault {
			return a.ID
		}
	}
	if len(accounts) > 0 {
		return accounts[0].ID
	}
	return ""
}

func equalsAny(needle string, names ...string) bool {
	for _, n := range names {
		if n != "" && strings.ToLower(n) == needle {
			return true
		}
	}
	return false
}

func containsAny(needle string, names ...string) bool {
	for _, n := range names {
		if n != "" && strings.Contains(strings.ToLower(n), needle) {
			return true
		}
	}
	return false
}

// overlapsAny reports a substring match in either direction. Empty names never match.
func overlapsAny(needle string, names ...string) bool {
	for _, n := range names {
		if n == "" {
			continue
		}
		l := strings.ToLower(n)
		if strings.Contains(l, needle) || strings.Contains(needle, l) {
			return true
		}
	}
	return false
}
