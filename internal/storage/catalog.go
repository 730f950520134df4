package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, bank, color, is_default, sort_order FROM accounts ORDER BY sort_order, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Bank, &a.Color, &a.IsDefault, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertAccount(ctx context.Context, q querier, a core.Account) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (id, name, bank, color, is_default, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Bank, a.Color, boolInt(a.IsDefault), a.SortOrder)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = newID(a.ID)
	if err := insertAccount(ctx, r.db, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, bank = ?, color = ?, is_default = ?, sort_order = ? WHERE id = ?`,
		a.Name, a.Bank, a.Color, boolInt(a.IsDefault), a.SortOrder, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if err := affected(res, "account", a.ID); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// DeleteAccount relies on ON DELETE SET NULL to detach transactions and templates.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return affected(res, "account", id)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name_fr, name_en, icon, color, is_default, sort_order FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.NameFR, &c.NameEN, &c.Icon, &c.Color, &c.IsDefault, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func insertCategory(ctx context.Context, q querier, c core.Category) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO categories (id, name_fr, name_en, icon, color, is_default, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NameFR, c.NameEN, c.Icon, c.Color, boolInt(c.IsDefault), c.SortOrder)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = newID(c.ID)
	if err := insertCategory(ctx, r.db, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name_fr = ?, name_en = ?, icon = ?, color = ?, is_default = ?, sort_order = ? WHERE id = ?`,
		c.NameFR, c.NameEN, c.Icon, c.Color, boolInt(c.IsDefault), c.SortOrder, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := affected(res, "category", c.ID); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// DeleteCategory cascades to subcategories and budget links once no
// transaction or template references any of its subcategories.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(q querier) error {
		if err := mustExist(ctx, q, "categories", "category", id); err != nil {
			return err
		}
		var refs int
		err := q.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM transactions t JOIN subcategories s ON s.id = t.subcategory_id WHERE s.category_id = ?)
			     + (SELECT COUNT(*) FROM recurring_templates rt JOIN subcategories s ON s.id = rt.subcategory_id WHERE s.category_id = ?)`,
			id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("category %q: %w", id, ledger.ErrInUse)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) ListSubcategories(ctx context.Context) ([]core.Subcategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, name_fr, name_en, sort_order FROM subcategories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var out []core.Subcategory
	for rows.Next() {
		var s core.Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.NameFR, &s.NameEN, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func insertSubcategory(ctx context.Context, q querier, s core.Subcategory) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO subcategories (id, category_id, name_fr, name_en, sort_order) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.CategoryID, s.NameFR, s.NameEN, s.SortOrder)
	if err != nil {
		return fmt.Errorf("insert subcategory: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateSubcategory(ctx context.Context, s core.Subcategory) (core.Subcategory, error) {
	if err := s.Validate(); err != nil {
		return core.Subcategory{}, err
	}
	if err := mustExist(ctx, r.db, "categories", "category", s.CategoryID); err != nil {
		return core.Subcategory{}, err
	}
	s.ID = newID(s.ID)
	if err := insertSubcategory(ctx, r.db, s); err != nil {
		return core.Subcategory{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) UpdateSubcategory(ctx context.Context, s core.Subcategory) (core.Subcategory, error) {
	if err := s.Validate(); err != nil {
		return core.Subcategory{}, err
	}
	if err := mustExist(ctx, r.db, "categories", "category", s.CategoryID); err != nil {
		return core.Subcategory{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE subcategories SET category_id = ?, name_fr = ?, name_en = ?, sort_order = ? WHERE id = ?`,
		s.CategoryID, s.NameFR, s.NameEN, s.SortOrder, s.ID)
	if err != nil {
		return core.Subcategory{}, fmt.Errorf("update subcategory: %w", err)
	}
	if err := affected(res, "subcategory", s.ID); err != nil {
		return core.Subcategory{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) DeleteSubcategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(q querier) error {
		if err := mustExist(ctx, q, "subcategories", "subcategory", id); err != nil {
			return err
		}
		var refs int
		err := q.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM transactions WHERE subcategory_id = ?)
			     + (SELECT COUNT(*) FROM recurring_templates WHERE subcategory_id = ?)`,
			id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count subcategory references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("subcategory %q: %w", id, ledger.ErrInUse)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM subcategories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete subcategory: %w", err)
		}
		return nil
	})
}
