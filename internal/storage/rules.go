package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

func (r *Repository) CreateRule(ctx context.Context, rule core.Rule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}
	if _, err := r.GetCategory(ctx, rule.CategoryID); err != nil {
		return 0, fmt.Errorf("rule target category: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categorization_rules (priority, match_field, match_type, pattern, category_id)
		VALUES (?, ?, ?, ?, ?)`,
		rule.Priority, string(rule.MatchField), string(rule.MatchType), rule.Pattern, rule.CategoryID)
	if err != nil {
		return 0, storeErr("create rule", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("create rule id", err)
	}

	slog.InfoContext(ctx, "Categorization rule created",
		"id", id,
		"pattern", rule.Pattern,
		"category_id", rule.CategoryID)

	return id, nil
}

func (r *Repository) GetRule(ctx context.Context, id int64) (*core.Rule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, priority, match_field, match_type, pattern, category_id
		FROM categorization_rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, storeErr("get rule", err)
	}
	return rule, nil
}

func (r *Repository) DeleteRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete rule", err)
	}
	return requireRow(res, "delete rule")
}

// ListRules returns every rule in evaluation order: ascending priority,
// then ascending ID as the tiebreak.
func (r *Repository) ListRules(ctx context.Context) ([]core.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, priority, match_field, match_type, pattern, category_id
		FROM categorization_rules ORDER BY priority, id`)
	if err != nil {
		return nil, storeErr("list rules", err)
	}
	defer rows.Close()

	var out []core.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, storeErr("scan rule", err)
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

func scanRule(row rowScanner) (*core.Rule, error) {
	var (
		rule       core.Rule
		field, typ string
	)
	err := row.Scan(&rule.ID, &rule.Priority, &field, &typ, &rule.Pattern, &rule.CategoryID)
	if err != nil {
		return nil, err
	}
	rule.MatchField = core.MatchField(field)
	rule.MatchType = core.MatchType(typ)
	return &rule, nil
}
