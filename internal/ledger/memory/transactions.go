package memory

import (
	"context"
	"fmt"
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// ListTransactions returns newest first; same-day entries keep the latest insert first.
func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for i := len(s.txs) - 1; i >= 0; i-- {
		if f.Matches(s.txs[i]) {
			out = append(out, s.txs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.txs, id, func(t core.Transaction) string { return t.ID })
	if i < 0 {
		return core.Transaction{}, notFound("transaction", id)
	}
	return s.txs[i], nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.CreateTransactions(ctx, []core.Transaction{tx})
	if err != nil {
		return core.Transaction{}, err
	}
	return created[0], nil
}

// CreateTransactions validates the whole batch before storing any of it.
func (s *Store) CreateTransactions(_ context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx = tx.Normalize()
		if err := s.checkTransaction(tx); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		tx.ID = newID(tx.ID)
		out[i] = tx
	}
	s.txs = append(s.txs, out...)
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTransaction(tx); err != nil {
		return core.Transaction{}, err
	}
	i := indexOf(s.txs, tx.ID, func(t core.Transaction) string { return t.ID })
	if i < 0 {
		return core.Transaction{}, notFound("transaction", tx.ID)
	}
	s.txs[i] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.txs, id, func(t core.Transaction) string { return t.ID })
	if i < 0 {
		return notFound("transaction", id)
	}
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return nil
}

func (s *Store) checkTransaction(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if !s.hasSubcategory(tx.SubcategoryID) {
		return notFound("subcategory", tx.SubcategoryID)
	}
	if tx.AccountID != "" && indexOf(s.accounts, tx.AccountID, func(a core.Account) string { return a.ID }) < 0 {
		return notFound("account", tx.AccountID)
	}
	return nil
}
