package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

const transactionColumns = `id, date, amount_cents, description, merchant, account_name, category_id, notes, source, created_at, updated_at`

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	From          core.Date
	To            core.Date
	CategoryID    *int64
	Uncategorized bool
	Account       string
	Source        core.Source
	Search        string
	MinCents      *int64
	MaxCents      *int64
	Limit         int
	Offset        int
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, amount_cents, description, merchant, account_name, category_id, notes, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Amount.Cents, t.Description, t.Merchant, t.AccountName,
		nullInt64(t.CategoryID), t.Notes, string(t.Source), now, now)
	if err != nil {
		return 0, storeErr("create transaction", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("create transaction id", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", t.Date.String(),
		"amount_cents", t.Amount.Cents,
		"source", t.Source)

	return id, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, storeErr("get transaction", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount_cents = ?, description = ?, merchant = ?, account_name = ?, category_id = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		t.Date.String(), t.Amount.Cents, t.Description, t.Merchant, t.AccountName,
		nullInt64(t.CategoryID), t.Notes, time.Now().UTC(), t.ID)
	if err != nil {
		return storeErr("update transaction", err)
	}
	return requireRow(res, "update transaction")
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete transaction", err)
	}
	return requireRow(res, "delete transaction")
}

// ListTransactions returns a page of transactions matching the filter,
// newest date first, plus the total match count for pagination.
func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, int, error) {
	where, args := transactionWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count transactions", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, storeErr("scan transaction", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	return out, total, nil
}

func transactionWhere(f TransactionFilter) (string, []any) {
	var conds []string
	var args []any

	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Uncategorized {
		conds = append(conds, "category_id IS NULL")
	} else if f.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Account != "" {
		conds = append(conds, "account_name = ?")
		args = append(args, f.Account)
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.Search != "" {
		conds = append(conds, "(description LIKE ? OR merchant LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.MinCents != nil {
		conds = append(conds, "amount_cents >= ?")
		args = append(args, *f.MinCents)
	}
	if f.MaxCents != nil {
		conds = append(conds, "amount_cents <= ?")
		args = append(args, *f.MaxCents)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// TransactionExists is the import pipeline's duplicate probe. Descriptions
// compare case-insensitively, matching the pipeline's in-batch dedup key.
func (r *Repository) TransactionExists(ctx context.Context, date core.Date, amountCents int64, description string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE date = ? AND amount_cents = ? AND LOWER(description) = LOWER(?)`,
		date.String(), amountCents, description).Scan(&n)
	if err != nil {
		return false, storeErr("transaction exists", err)
	}
	return n > 0, nil
}

// ListAccountNames returns the distinct non-empty account names in use.
func (r *Repository) ListAccountNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT account_name FROM transactions
		WHERE account_name != '' ORDER BY account_name`)
	if err != nil {
		return nil, storeErr("list account names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr("scan account name", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListUncategorized returns transactions with no category, oldest first.
// The worker feeds these back through the rule engine.
func (r *Repository) ListUncategorized(ctx context.Context, limit int) ([]core.Transaction, error) {
	txs, _, err := r.ListTransactions(ctx, TransactionFilter{Uncategorized: true, Limit: limit})
	return txs, err
}

// SetTransactionCategory assigns or clears one transaction's category.
func (r *Repository) SetTransactionCategory(ctx context.Context, id int64, categoryID *int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, updated_at = ? WHERE id = ?`,
		nullInt64(categoryID), time.Now().UTC(), id)
	if err != nil {
		return storeErr("set transaction category", err)
	}
	return requireRow(res, "set transaction category")
}

// SetTransactionCategories bulk-assigns a category and reports how many
// rows changed. Unknown IDs are ignored rather than failing the batch.
func (r *Repository) SetTransactionCategories(ctx context.Context, ids []int64, categoryID *int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+2)
	args = append(args, nullInt64(categoryID), time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, updated_at = ?
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, storeErr("bulk set transaction category", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t          core.Transaction
		date       string
		categoryID sql.NullInt64
		source     string
	)
	err := row.Scan(&t.ID, &date, &t.Amount.Cents, &t.Description, &t.Merchant,
		&t.AccountName, &categoryID, &t.Notes, &source, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := core.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.Date = parsed
	t.CategoryID = int64Ptr(categoryID)
	t.Source = core.Source(source)
	return &t, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
