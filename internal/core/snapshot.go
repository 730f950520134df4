package core

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is an immutable view of the ledger handed to the engine.
// Version fingerprints the content and changes whenever any entity does.
type Snapshot struct {
	Accounts     []Account
	Catalog      *Catalog
	Transactions []Transaction
	Budgets      []Budget
	Recurring    []RecurringTemplate
	Version      uint64
}

// NewSnapshot builds a snapshot and computes its version.
func NewSnapshot(accounts []Account, categories []Category, subcategories []Subcategory,
	txs []Transaction, budgets []Budget, recurring []RecurringTemplate) *Snapshot {
	return &Snapshot{
		Accounts:     accounts,
		Catalog:      NewCatalog(categories, subcategories),
		Transactions: txs,
		Budgets:      budgets,
		Recurring:    recurring,
		Version:      fingerprint(accounts, categories, subcategories, txs, budgets, recurring),
	}
}

func fingerprint(parts ...any) uint64 {
	d := xxhash.New()
	enc := json.NewEncoder(d)
	for _, p := range parts {
		// Entities only hold plain fields, so encoding cannot fail.
		_ = enc.Encode(p)
	}
	return d.Sum64()
}
