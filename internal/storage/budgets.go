package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_limit, period, color, icon, description, is_active FROM budgets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	var out []core.Budget
	index := map[string]int{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.Limit.Cents, &b.Period, &b.Color, &b.Icon, &b.Description, &b.IsActive); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryIDs = core.NewIDSet()
		b.SubcategoryIDs = core.NewIDSet()
		index[b.ID] = len(out)
		out = append(out, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links := []struct {
		query string
		set   func(b *core.Budget) core.IDSet
	}{
		{`SELECT budget_id, category_id FROM budget_categories`, func(b *core.Budget) core.IDSet { return b.CategoryIDs }},
		{`SELECT budget_id, subcategory_id FROM budget_subcategories`, func(b *core.Budget) core.IDSet { return b.SubcategoryIDs }},
	}
	for _, l := range links {
		if err := r.scanLinks(ctx, l.query, func(budgetID, id string) {
			if i, ok := index[budgetID]; ok {
				l.set(&out[i])[id] = struct{}{}
			}
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) scanLinks(ctx context.Context, query string, add func(budgetID, id string)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("list budget links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var budgetID, id string
		if err := rows.Scan(&budgetID, &id); err != nil {
			return fmt.Errorf("scan budget link: %w", err)
		}
		add(budgetID, id)
	}
	return rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = newID(b.ID)
	err := r.inTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO budgets (id, name, amount_limit, period, color, icon, description, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Limit.Cents, string(b.Period), b.Color, b.Icon, b.Description, boolInt(b.IsActive)); err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		return replaceLinks(ctx, q, b)
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// UpdateBudget rewrites the row and both link tables together.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := r.inTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE budgets SET name = ?, amount_limit = ?, period = ?, color = ?, icon = ?, description = ?, is_active = ? WHERE id = ?`,
			b.Name, b.Limit.Cents, string(b.Period), b.Color, b.Icon, b.Description, boolInt(b.IsActive), b.ID)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if err := affected(res, "budget", b.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, q, b)
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func replaceLinks(ctx context.Context, q querier, b core.Budget) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM budget_categories WHERE budget_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear budget categories: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM budget_subcategories WHERE budget_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear budget subcategories: %w", err)
	}
	for _, id := range b.CategoryIDs.Sorted() {
		if err := mustExist(ctx, q, "categories", "category", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `INSERT INTO budget_categories (budget_id, category_id) VALUES (?, ?)`, b.ID, id); err != nil {
			return fmt.Errorf("link budget category: %w", err)
		}
	}
	for _, id := range b.SubcategoryIDs.Sorted() {
		if err := mustExist(ctx, q, "subcategories", "subcategory", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `INSERT INTO budget_subcategories (budget_id, subcategory_id) VALUES (?, ?)`, b.ID, id); err != nil {
			return fmt.Errorf("link budget subcategory: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return affected(res, "budget", id)
}
