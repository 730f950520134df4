package core

import "sort"

// Catalog indexes categories and subcategories. It is the single place
// where a transaction's category is derived from its subcategory.
type Catalog struct {
	categories    []Category
	subcategories []Subcategory
	catByID       map[string]int
	subByID       map[string]int
	subsByCat     map[string][]int
}

// NewCatalog builds a catalog. Both lists are sorted by SortOrder, keeping input order on ties.
func NewCatalog(categories []Category, subcategories []Subcategory) *Catalog {
	c := &Catalog{
		categories:    append([]Category(nil), categories...),
		subcategories: append([]Subcategory(nil), subcategories...),
		catByID:       make(map[string]int, len(categories)),
		subByID:       make(map[string]int, len(subcategories)),
		subsByCat:     make(map[string][]int, len(categories)),
	}
	sort.SliceStable(c.categories, func(i, j int) bool {
		return c.categories[i].SortOrder < c.categories[j].SortOrder
	})
	sort.SliceStable(c.subcategories, func(i, j int) bool {
		return c.subcategories[i].SortOrder < c.subcategories[j].SortOrder
	})
	for i, cat := range c.categories {
		c.catByID[cat.ID] = i
	}
	for i, sub := range c.subcategories {
		c.subByID[sub.ID] = i
		c.subsByCat[sub.CategoryID] = append(c.subsByCat[sub.CategoryID], i)
	}
	return c
}

// CategoryOf returns the parent category ID of a subcategory.
func (c *Catalog) CategoryOf(subcategoryID string) (string, bool) {
	if c == nil {
		return "", false
	}
	i, ok := c.subByID[subcategoryID]
	if !ok {
		return "", false
	}
	return c.subcategories[i].CategoryID, true
}

func (c *Catalog) Category(id string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	i, ok := c.catByID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Subcategory(id string) (Subcategory, bool) {
	if c == nil {
		return Subcategory{}, false
	}
	i, ok := c.subByID[id]
	if !ok {
		return Subcategory{}, false
	}
	return c.subcategories[i], true
}

// SubcategoriesOf returns the subcategories of a category by sort order.
func (c *Catalog) SubcategoriesOf(categoryID string) []Subcategory {
	if c == nil {
		return nil
	}
	idx := c.subsByCat[categoryID]
	out := make([]Subcategory, len(idx))
	for i, j := range idx {
		out[i] = c.subcategories[j]
	}
	return out
}

func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	return append([]Category(nil), c.categories...)
}

func (c *Catalog) Subcategories() []Subcategory {
	if c == nil {
		return nil
	}
	return append([]Subcategory(nil), c.subcategories...)
}
