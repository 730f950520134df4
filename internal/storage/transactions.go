package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const transactionColumns = `id, description, amount_cents, date, account_id, subcategory_id, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		date    string
		account sql.NullString
	)
	if err := s.Scan(&tx.ID, &tx.Description, &tx.Amount.Cents, &date, &account, &tx.SubcategoryID, &tx.Notes); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseDateText(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	tx.Date = d
	tx.AccountID = account.String
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsEmpty() {
		where = append(where, "date >= ?")
		args = append(args, dateText(f.From))
	}
	if !f.To.IsEmpty() {
		where = append(where, "date <= ?")
		args = append(args, dateText(f.To))
	}
	if f.SubcategoryID != "" {
		where = append(where, "subcategory_id = ?")
		args = append(args, f.SubcategoryID)
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := r.CreateTransactions(ctx, []core.Transaction{tx})
	if err != nil {
		return core.Transaction{}, err
	}
	return created[0], nil
}

// CreateTransactions inserts the batch in one database transaction.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, len(txs))
	err := r.inTx(ctx, func(q querier) error {
		for i, tx := range txs {
			tx = tx.Normalize()
			if err := checkTransaction(ctx, q, tx); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
			tx.ID = newID(tx.ID)
			if _, err := q.ExecContext(ctx,
				`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				tx.ID, tx.Description, tx.Amount.Cents, dateText(tx.Date), nullable(tx.AccountID), tx.SubcategoryID, tx.Notes); err != nil {
				return fmt.Errorf("insert transaction %d: %w", i, err)
			}
			out[i] = tx
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Transactions saved to SQLite", "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := checkTransaction(ctx, r.db, tx); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET description = ?, amount_cents = ?, date = ?, account_id = ?, subcategory_id = ?, notes = ? WHERE id = ?`,
		tx.Description, tx.Amount.Cents, dateText(tx.Date), nullable(tx.AccountID), tx.SubcategoryID, tx.Notes, tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := affected(res, "transaction", tx.ID); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res, "transaction", id)
}

func checkTransaction(ctx context.Context, q querier, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := mustExist(ctx, q, "subcategories", "subcategory", tx.SubcategoryID); err != nil {
		return err
	}
	if tx.AccountID != "" {
		return mustExist(ctx, q, "accounts", "account", tx.AccountID)
	}
	return nil
}
