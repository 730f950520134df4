package ledger

import "fintrack/internal/core"

// DefaultAccount is created for a fresh ledger.
func DefaultAccount() core.Account {
	return core.Account{ID: "acc-main", Name: "Compte courant", IsDefault: true, SortOrder: 1}
}

// DefaultCategories is the starter taxonomy of a fresh ledger.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "cat-housing", NameFR: "Logement", NameEN: "Housing", Icon: "home", Color: "#003D5B", IsDefault: true, SortOrder: 1},
		{ID: "cat-food", NameFR: "Alimentation", NameEN: "Food", Icon: "cart", Color: "#00A3E0", IsDefault: true, SortOrder: 2},
		{ID: "cat-transport", NameFR: "Transport", NameEN: "Transport", Icon: "car", Color: "#E67E22", IsDefault: true, SortOrder: 3},
		{ID: "cat-health", NameFR: "Santé", NameEN: "Health", Icon: "heart", Color: "#00B894", IsDefault: true, SortOrder: 4},
		{ID: "cat-leisure", NameFR: "Loisirs", NameEN: "Leisure", Icon: "star", Color: "#9B59B6", IsDefault: true, SortOrder: 5},
		{ID: "cat-misc", NameFR: "Divers", NameEN: "Miscellaneous", Icon: "box", Color: "#BDC3C7", IsDefault: true, SortOrder: 6},
	}
}

func DefaultSubcategories() []core.Subcategory {
	return []core.Subcategory{
		{ID: "sub-rent", CategoryID: "cat-housing", NameFR: "Loyer", NameEN: "Rent", SortOrder: 1},
		{ID: "sub-energy", CategoryID: "cat-housing", NameFR: "Énergie", NameEN: "Energy", SortOrder: 2},
		{ID: "sub-internet", CategoryID: "cat-housing", NameFR: "Internet", NameEN: "Internet", SortOrder: 3},
		{ID: "sub-groceries", CategoryID: "cat-food", NameFR: "Courses", NameEN: "Groceries", SortOrder: 1},
		{ID: "sub-restaurant", CategoryID: "cat-food", NameFR: "Restaurant", NameEN: "Restaurant", SortOrder: 2},
		{ID: "sub-fuel", CategoryID: "cat-transport", NameFR: "Carburant", NameEN: "Fuel", SortOrder: 1},
		{ID: "sub-public-transport", CategoryID: "cat-transport", NameFR: "Transports publics", NameEN: "Public transport", SortOrder: 2},
		{ID: "sub-pharmacy", CategoryID: "cat-health", NameFR: "Pharmacie", NameEN: "Pharmacy", SortOrder: 1},
		{ID: "sub-doctor", CategoryID: "cat-health", NameFR: "Médecin", NameEN: "Doctor", SortOrder: 2},
		{ID: "sub-outings", CategoryID: "cat-leisure", NameFR: "Sorties", NameEN: "Outings", SortOrder: 1},
		{ID: "sub-subscriptions", CategoryID: "cat-leisure", NameFR: "Abonnements", NameEN: "Subscriptions", SortOrder: 2},
		{ID: "sub-other", CategoryID: "cat-misc", NameFR: "Autre", NameEN: "Other", SortOrder: 1},
	}
}
