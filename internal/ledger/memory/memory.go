// Package memory is a thread-safe in-memory ledger repository, seeded with
// the default taxonomy. It backs tests and the "memory" data backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu        sync.RWMutex
	accounts  []core.Account
	cats      []core.Category
	subs      []core.Subcategory
	txs       []core.Transaction
	budgets   []core.Budget
	recurring []core.RecurringTemplate
}

// New returns a store holding the default account and taxonomy.
func New() *Store {
	return &Store{
		accounts: []core.Account{ledger.DefaultAccount()},
		cats:     ledger.DefaultCategories(),
		subs:     ledger.DefaultSubcategories(),
	}
}

// NewEmpty returns a store without any seeded data.
func NewEmpty() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}

func bySortOrder[T any](items []T, order func(T) int) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ledger.ErrNotFound)
}

// Accounts

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bySortOrder(s.accounts, func(a core.Account) int { return a.SortOrder }), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = newID(a.ID)
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.accounts, a.ID, func(a core.Account) string { return a.ID })
	if i < 0 {
		return core.Account{}, notFound("account", a.ID)
	}
	s.accounts[i] = a
	return a, nil
}

// DeleteAccount detaches transactions and templates from the account.
func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.accounts, id, func(a core.Account) string { return a.ID })
	if i < 0 {
		return notFound("account", id)
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	for j := range s.txs {
		if s.txs[j].AccountID == id {
			s.txs[j].AccountID = ""
		}
	}
	for j := range s.recurring {
		if s.recurring[j].AccountID == id {
			s.recurring[j].AccountID = ""
		}
	}
	return nil
}

// Catalog

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bySortOrder(s.cats, func(c core.Category) int { return c.SortOrder }), nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID(c.ID)
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.cats, c.ID, func(c core.Category) string { return c.ID })
	if i < 0 {
		return core.Category{}, notFound("category", c.ID)
	}
	s.cats[i] = c
	return c, nil
}

// DeleteCategory removes the category with its subcategories. It fails with
// ledger.ErrInUse while any of those subcategories is referenced.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.cats, id, func(c core.Category) string { return c.ID })
	if i < 0 {
		return notFound("category", id)
	}
	for _, sub := range s.subs {
		if sub.CategoryID == id && s.subcategoryInUse(sub.ID) {
			return fmt.Errorf("category %q: %w", id, ledger.ErrInUse)
		}
	}
	s.cats = append(s.cats[:i], s.cats[i+1:]...)
	kept := s.subs[:0]
	for _, sub := range s.subs {
		if sub.CategoryID == id {
			s.unlinkSubcategory(sub.ID)
			continue
		}
		kept = append(kept, sub)
	}
	s.subs = kept
	for j := range s.budgets {
		if s.budgets[j].CategoryIDs.Has(id) {
			s.budgets[j].CategoryIDs = without(s.budgets[j].CategoryIDs, id)
		}
	}
	return nil
}

func (s *Store) ListSubcategories(_ context.Context) ([]core.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bySortOrder(s.subs, func(c core.Subcategory) int { return c.SortOrder }), nil
}

func (s *Store) CreateSubcategory(_ context.Context, sub core.Subcategory) (core.Subcategory, error) {
	if err := sub.Validate(); err != nil {
		return core.Subcategory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.cats, sub.CategoryID, func(c core.Category) string { return c.ID }) < 0 {
		return core.Subcategory{}, notFound("category", sub.CategoryID)
	}
	sub.ID = newID(sub.ID)
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *Store) UpdateSubcategory(_ context.Context, sub core.Subcategory) (core.Subcategory, error) {
	if err := sub.Validate(); err != nil {
		return core.Subcategory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.subs, sub.ID, func(c core.Subcategory) string { return c.ID })
	if i < 0 {
		return core.Subcategory{}, notFound("subcategory", sub.ID)
	}
	if indexOf(s.cats, sub.CategoryID, func(c core.Category) string { return c.ID }) < 0 {
		return core.Subcategory{}, notFound("category", sub.CategoryID)
	}
	s.subs[i] = sub
	return sub, nil
}

func (s *Store) DeleteSubcategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.subs, id, func(c core.Subcategory) string { return c.ID })
	if i < 0 {
		return notFound("subcategory", id)
	}
	if s.subcategoryInUse(id) {
		return fmt.Errorf("subcategory %q: %w", id, ledger.ErrInUse)
	}
	s.subs = append(s.subs[:i], s.subs[i+1:]...)
	s.unlinkSubcategory(id)
	return nil
}

func (s *Store) subcategoryInUse(id string) bool {
	for _, tx := range s.txs {
		if tx.SubcategoryID == id {
			return true
		}
	}
	for _, rt := range s.recurring {
		if rt.SubcategoryID == id {
			return true
		}
	}
	return false
}

func (s *Store) unlinkSubcategory(id string) {
	for j := range s.budgets {
		if s.budgets[j].SubcategoryIDs.Has(id) {
			s.budgets[j].SubcategoryIDs = without(s.budgets[j].SubcategoryIDs, id)
		}
	}
}

func without(set core.IDSet, id string) core.IDSet {
	out := make(core.IDSet, len(set))
	for k := range set {
		if k != id {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s *Store) hasSubcategory(id string) bool {
	return indexOf(s.subs, id, func(c core.Subcategory) string { return c.ID }) >= 0
}
