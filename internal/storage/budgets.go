package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (name, amount_cents, period, category_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Amount.Cents, string(b.Period), nullInt64(b.CategoryID),
		dateOrNull(b.StartDate), dateOrNull(b.EndDate), time.Now().UTC())
	if err != nil {
		return 0, storeErr("create budget", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetBudget(ctx context.Context, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, period, category_id, start_date, end_date, created_at
		FROM budgets WHERE id = ?`, id)

	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, storeErr("get budget", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, amount_cents = ?, period = ?, category_id = ?, start_date = ?, end_date = ?
		WHERE id = ?`,
		b.Name, b.Amount.Cents, string(b.Period), nullInt64(b.CategoryID),
		dateOrNull(b.StartDate), dateOrNull(b.EndDate), b.ID)
	if err != nil {
		return storeErr("update budget", err)
	}
	return requireRow(res, "update budget")
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete budget", err)
	}
	return requireRow(res, "delete budget")
}

func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, period, category_id, start_date, end_date, created_at
		FROM budgets ORDER BY name`)
	if err != nil {
		return nil, storeErr("list budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, storeErr("scan budget", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// SumExpenses totals expense cents (as a positive number) for a date range,
// optionally restricted to a category ID set. Budget progress uses this
// with the budget category's subtree.
func (r *Repository) SumExpenses(ctx context.Context, categoryIDs []int64, from, to core.Date) (int64, error) {
	query := `SELECT COALESCE(SUM(-amount_cents), 0) FROM transactions
		WHERE amount_cents < 0 AND date >= ? AND date <= ?`
	args := []any{from.String(), to.String()}

	if len(categoryIDs) > 0 {
		placeholders := strings.Repeat("?,", len(categoryIDs))
		query += ` AND category_id IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, id := range categoryIDs {
			args = append(args, id)
		}
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, storeErr("sum expenses", err)
	}
	return total, nil
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var (
		b          core.Budget
		period     string
		categoryID sql.NullInt64
		start, end sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &b.Amount.Cents, &period, &categoryID, &start, &end, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Period = core.Period(period)
	b.CategoryID = int64Ptr(categoryID)
	if b.StartDate, err = nullDate(start); err != nil {
		return nil, err
	}
	if b.EndDate, err = nullDate(end); err != nil {
		return nil, err
	}
	return &b, nil
}

func dateOrNull(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}
