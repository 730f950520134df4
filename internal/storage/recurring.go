package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const recurringColumns = `id, description, amount_cents, frequency, day_of_month, day_of_week,
	subcategory_id, account_id, start_date, end_date, notes, is_active`

func scanRecurring(s rowScanner) (core.RecurringTemplate, error) {
	var (
		rt         core.RecurringTemplate
		account    sql.NullString
		start, end string
	)
	if err := s.Scan(&rt.ID, &rt.Description, &rt.Amount.Cents, &rt.Frequency, &rt.DayOfMonth, &rt.DayOfWeek,
		&rt.SubcategoryID, &account, &start, &end, &rt.Notes, &rt.IsActive); err != nil {
		return core.RecurringTemplate{}, err
	}
	var err error
	if rt.StartDate, err = parseDateText(start); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("template %s start: %w", rt.ID, err)
	}
	if rt.EndDate, err = parseDateText(end); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("template %s end: %w", rt.ID, err)
	}
	rt.AccountID = account.String
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, f ledger.RecurringFilter) ([]core.RecurringTemplate, error) {
	query := "SELECT " + recurringColumns + " FROM recurring_templates"
	if f.ActiveOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id string) (core.RecurringTemplate, error) {
	rt, err := scanRecurring(r.db.QueryRowContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_templates WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, notFound("recurring template", id)
	}
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get recurring template: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	if err := r.checkRecurring(ctx, rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.ID = newID(rt.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO recurring_templates ("+recurringColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rt.ID, rt.Description, rt.Amount.Cents, string(rt.Frequency), rt.DayOfMonth, rt.DayOfWeek,
		rt.SubcategoryID, nullable(rt.AccountID), dateText(rt.StartDate), dateText(rt.EndDate), rt.Notes, boolInt(rt.IsActive))
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert recurring template: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	if err := r.checkRecurring(ctx, rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_templates SET description = ?, amount_cents = ?, frequency = ?,
		day_of_month = ?, day_of_week = ?, subcategory_id = ?, account_id = ?, start_date = ?, end_date = ?, notes = ?, is_active = ?
		WHERE id = ?`,
		rt.Description, rt.Amount.Cents, string(rt.Frequency), rt.DayOfMonth, rt.DayOfWeek, rt.SubcategoryID,
		nullable(rt.AccountID), dateText(rt.StartDate), dateText(rt.EndDate), rt.Notes, boolInt(rt.IsActive), rt.ID)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("update recurring template: %w", err)
	}
	if err := affected(res, "recurring template", rt.ID); err != nil {
		return core.RecurringTemplate{}, err
	}
	return rt, nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring template: %w", err)
	}
	return affected(res, "recurring template", id)
}

func (r *SQLiteRepository) checkRecurring(ctx context.Context, rt core.RecurringTemplate) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	if err := mustExist(ctx, r.db, "subcategories", "subcategory", rt.SubcategoryID); err != nil {
		return err
	}
	if rt.AccountID != "" {
		return mustExist(ctx, r.db, "accounts", "account", rt.AccountID)
	}
	return nil
}
