package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"fintrack/internal/core"
)

// SpendingByCategory aggregates a date range into per-category totals.
// kind selects expenses (negative amounts, reported positive) or income.
// Transactions without a category land in an "Uncategorized" bucket with a
// nil CategoryID. Ordered by amount, largest first.
func (r *Repository) SpendingByCategory(ctx context.Context, from, to core.Date, kind string) (*core.SpendingReport, error) {
	sign := "amount_cents < 0"
	total := "-amount_cents"
	if kind == "income" {
		sign = "amount_cents > 0"
		total = "amount_cents"
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT t.category_id, COALESCE(c.name, 'Uncategorized'), COALESCE(c.color, '#6c757d'), SUM(%s)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE %s AND t.date >= ? AND t.date <= ?
		GROUP BY t.category_id
		ORDER BY SUM(%s) DESC`, total, sign, total),
		from.String(), to.String())
	if err != nil {
		return nil, storeErr("spending by category", err)
	}
	defer rows.Close()

	report := &core.SpendingReport{Start: from, End: to, Type: kind}
	for rows.Next() {
		var (
			spend      core.CategorySpend
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&categoryID, &spend.Name, &spend.Color, &spend.Amount.Cents); err != nil {
			return nil, storeErr("scan category spend", err)
		}
		spend.CategoryID = int64Ptr(categoryID)
		report.Data = append(report.Data, spend)
		report.Total.Cents += spend.Amount.Cents
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("spending by category", err)
	}
	return report, nil
}

// MonthlyTrend returns income and expense totals per calendar month for
// the given range, oldest month first. Months with no transactions are
// absent from the series.
func (r *Repository) MonthlyTrend(ctx context.Context, from, to core.Date) ([]core.MonthPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y', date), strftime('%m', date),
			COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ? AND date <= ?
		GROUP BY strftime('%Y-%m', date)
		ORDER BY strftime('%Y-%m', date)`,
		from.String(), to.String())
	if err != nil {
		return nil, storeErr("monthly trend", err)
	}
	defer rows.Close()

	var points []core.MonthPoint
	for rows.Next() {
		var (
			year, month string
			p           core.MonthPoint
		)
		if err := rows.Scan(&year, &month, &p.Income.Cents, &p.Expense.Cents); err != nil {
			return nil, storeErr("scan trend point", err)
		}
		if p.Year, err = strconv.Atoi(year); err != nil {
			return nil, fmt.Errorf("trend year %q: %w", year, err)
		}
		if p.Month, err = strconv.Atoi(month); err != nil {
			return nil, fmt.Errorf("trend month %q: %w", month, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// bucketExpr returns the SQL expression grouping a date column into day,
// week (Monday start, matching the budget period math), or month buckets.
// The strftime placeholders mean these never go through Sprintf.
func bucketExpr(col, bucket string) string {
	switch bucket {
	case "week":
		return "date(" + col + ", '-' || ((strftime('%w', " + col + ") + 6) % 7) || ' days')"
	case "month":
		return "strftime('%Y-%m', " + col + ")"
	default:
		return col
	}
}

// PeriodTotals returns income and expense totals per time bucket, oldest
// first. Buckets with no transactions are absent; callers gap-fill.
func (r *Repository) PeriodTotals(ctx context.Context, from, to core.Date, bucket string, categoryID *int64) ([]core.PeriodPoint, error) {
	key := bucketExpr("date", bucket)
	query := `
		SELECT ` + key + `,
			COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ? AND date <= ?`
	args := []any{from.String(), to.String()}
	if categoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *categoryID)
	}
	query += " GROUP BY " + key + " ORDER BY " + key

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("period totals", err)
	}
	defer rows.Close()

	var points []core.PeriodPoint
	for rows.Next() {
		var p core.PeriodPoint
		if err := rows.Scan(&p.Key, &p.Income.Cents, &p.Expense.Cents); err != nil {
			return nil, storeErr("scan period point", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CategorySpendOverTime returns per-category expense totals per time
// bucket, expenses reported positive, ordered by bucket then category.
func (r *Repository) CategorySpendOverTime(ctx context.Context, from, to core.Date, bucket string) ([]core.CategoryPeriodSpend, error) {
	key := bucketExpr("t.date", bucket)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+key+`, t.category_id, COALESCE(c.name, 'Uncategorized'), COALESCE(c.color, '#6c757d'), SUM(-t.amount_cents)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.amount_cents < 0 AND t.date >= ? AND t.date <= ?
		GROUP BY `+key+`, t.category_id
		ORDER BY `+key+`, c.name`,
		from.String(), to.String())
	if err != nil {
		return nil, storeErr("category spend over time", err)
	}
	defer rows.Close()

	var spends []core.CategoryPeriodSpend
	for rows.Next() {
		var (
			s          core.CategoryPeriodSpend
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&s.Key, &categoryID, &s.Name, &s.Color, &s.Amount.Cents); err != nil {
			return nil, storeErr("scan category period spend", err)
		}
		s.CategoryID = int64Ptr(categoryID)
		spends = append(spends, s)
	}
	return spends, rows.Err()
}

// AmountsInRange returns the absolute amounts of the range's expense or
// income transactions, for distribution charts.
func (r *Repository) AmountsInRange(ctx context.Context, from, to core.Date, kind string) ([]int64, error) {
	selected := "-amount_cents"
	sign := "amount_cents < 0"
	if kind == "income" {
		selected = "amount_cents"
		sign = "amount_cents > 0"
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE %s AND date >= ? AND date <= ?`, selected, sign),
		from.String(), to.String())
	if err != nil {
		return nil, storeErr("amounts in range", err)
	}
	defer rows.Close()

	var amounts []int64
	for rows.Next() {
		var cents int64
		if err := rows.Scan(&cents); err != nil {
			return nil, storeErr("scan amount", err)
		}
		amounts = append(amounts, cents)
	}
	return amounts, rows.Err()
}

// RangeSummary aggregates a date range into overall totals and a
// per-category activity breakdown, most active category first.
func (r *Repository) RangeSummary(ctx context.Context, from, to core.Date) (*core.RangeSummary, error) {
	summary := &core.RangeSummary{Start: from, End: to}

	var net int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0),
			COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE date >= ? AND date <= ?`,
		from.String(), to.String()).
		Scan(&summary.Count, &summary.Income.Cents, &summary.Expense.Cents, &net)
	if err != nil {
		return nil, storeErr("range summary", err)
	}
	summary.Net.Cents = net
	if summary.Count > 0 {
		summary.Average.Cents = net / int64(summary.Count)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized'), COUNT(*), COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.date >= ? AND t.date <= ?
		GROUP BY t.category_id
		ORDER BY COUNT(*) DESC, c.name`,
		from.String(), to.String())
	if err != nil {
		return nil, storeErr("range summary breakdown", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a core.CategoryActivity
		if err := rows.Scan(&a.Name, &a.Count, &a.Total.Cents); err != nil {
			return nil, storeErr("scan category activity", err)
		}
		summary.Categories = append(summary.Categories, a)
	}
	return summary, rows.Err()
}
