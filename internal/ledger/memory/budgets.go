package memory

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func cloneBudget(b core.Budget) core.Budget {
	b.CategoryIDs = core.NewIDSet(b.CategoryIDs.Sorted()...)
	b.SubcategoryIDs = core.NewIDSet(b.SubcategoryIDs.Sorted()...)
	return b
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, len(s.budgets))
	for i, b := range s.budgets {
		out[i] = cloneBudget(b)
	}
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b = cloneBudget(b)
	b.ID = newID(b.ID)
	s.budgets = append(s.budgets, b)
	return cloneBudget(b), nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.budgets, b.ID, func(b core.Budget) string { return b.ID })
	if i < 0 {
		return core.Budget{}, notFound("budget", b.ID)
	}
	s.budgets[i] = cloneBudget(b)
	return cloneBudget(b), nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.budgets, id, func(b core.Budget) string { return b.ID })
	if i < 0 {
		return notFound("budget", id)
	}
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return nil
}

// Recurring templates

func (s *Store) ListRecurring(_ context.Context, f ledger.RecurringFilter) ([]core.RecurringTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RecurringTemplate, 0, len(s.recurring))
	for _, rt := range s.recurring {
		if f.ActiveOnly && !rt.IsActive {
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

func (s *Store) GetRecurring(_ context.Context, id string) (core.RecurringTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.recurring, id, func(t core.RecurringTemplate) string { return t.ID })
	if i < 0 {
		return core.RecurringTemplate{}, notFound("recurring template", id)
	}
	return s.recurring[i], nil
}

func (s *Store) CreateRecurring(_ context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRecurring(rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.ID = newID(rt.ID)
	s.recurring = append(s.recurring, rt)
	return rt, nil
}

func (s *Store) UpdateRecurring(_ context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRecurring(rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	i := indexOf(s.recurring, rt.ID, func(t core.RecurringTemplate) string { return t.ID })
	if i < 0 {
		return core.RecurringTemplate{}, notFound("recurring template", rt.ID)
	}
	s.recurring[i] = rt
	return rt, nil
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.recurring, id, func(t core.RecurringTemplate) string { return t.ID })
	if i < 0 {
		return notFound("recurring template", id)
	}
	s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
	return nil
}

func (s *Store) checkRecurring(rt core.RecurringTemplate) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	if !s.hasSubcategory(rt.SubcategoryID) {
		return notFound("subcategory", rt.SubcategoryID)
	}
	return nil
}

var _ ledger.Repository = (*Store)(nil)
