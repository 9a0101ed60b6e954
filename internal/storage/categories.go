package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if c.ParentID != nil {
		if _, err := r.GetCategory(ctx, *c.ParentID); err != nil {
			return 0, fmt.Errorf("parent category: %w", err)
		}
	}
	dup, err := r.categoryNameTaken(ctx, c.Name, c.ParentID, 0)
	if err != nil {
		return 0, err
	}
	if dup {
		return 0, core.ErrDuplicateName
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (name, parent_id, icon, color) VALUES (?, ?, ?, ?)`,
		c.Name, nullInt64(c.ParentID), c.Icon, c.Color)
	if err != nil {
		return 0, storeErr("create category", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("create category id", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name)
	return id, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, parent_id, icon, color FROM categories WHERE id = ?`, id)

	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, storeErr("get category", err)
	}
	return c, nil
}

// UpdateCategory changes a category's name, parent, icon, or color. Moving
// a category under one of its own descendants is rejected.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.ParentID != nil {
		if _, err := r.GetCategory(ctx, *c.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
		cycle, err := r.wouldCycle(ctx, c.ID, *c.ParentID)
		if err != nil {
			return err
		}
		if cycle {
			return core.ErrCategoryCycle
		}
	}
	dup, err := r.categoryNameTaken(ctx, c.Name, c.ParentID, c.ID)
	if err != nil {
		return err
	}
	if dup {
		return core.ErrDuplicateName
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, parent_id = ?, icon = ?, color = ? WHERE id = ?`,
		c.Name, nullInt64(c.ParentID), c.Icon, c.Color, c.ID)
	if err != nil {
		return storeErr("update category", err)
	}
	return requireRow(res, "update category")
}

// DeleteCategory removes a category. Deletion is blocked while anything
// still points at the node: child categories, transactions, budgets, or
// rules. Callers must reassign or remove the references first.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := r.GetCategory(ctx, id); err != nil {
		return err
	}

	refs, err := r.categoryRefCount(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d references", core.ErrCategoryInUse, refs)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete category", err)
	}
	if err := requireRow(res, "delete category"); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, name, parent_id, icon, color FROM categories ORDER BY name`)
}

func (r *Repository) ListChildCategories(ctx context.Context, parentID int64) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, name, parent_id, icon, color FROM categories WHERE parent_id = ? ORDER BY name`,
		parentID)
}

// CategoryIDSet returns all existing category IDs. The rule engine uses it
// to drop rules whose target category has been deleted.
func (r *Repository) CategoryIDSet(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM categories`)
	if err != nil {
		return nil, storeErr("list category ids", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan category id", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// SubtreeCategoryIDs returns a category's ID plus all descendant IDs.
// Budget progress and reports roll child spending up into the parent.
func (r *Repository) SubtreeCategoryIDs(ctx context.Context, id int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM categories WHERE id = ?
			UNION ALL
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return nil, storeErr("category subtree", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var cid int64
		if err := rows.Scan(&cid); err != nil {
			return nil, storeErr("scan subtree id", err)
		}
		ids = append(ids, cid)
	}
	return ids, rows.Err()
}

func (r *Repository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, storeErr("scan category", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCategory(row rowScanner) (*core.Category, error) {
	var (
		c        core.Category
		parentID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &parentID, &c.Icon, &c.Color); err != nil {
		return nil, err
	}
	c.ParentID = int64Ptr(parentID)
	return &c, nil
}

// categoryNameTaken checks for a sibling with the same name. excludeID
// skips the category itself during updates.
func (r *Repository) categoryNameTaken(ctx context.Context, name string, parentID *int64, excludeID int64) (bool, error) {
	var (
		n   int
		err error
	)
	if parentID == nil {
		err = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM categories
			WHERE name = ? AND parent_id IS NULL AND id != ?`,
			name, excludeID).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM categories
			WHERE name = ? AND parent_id = ? AND id != ?`,
			name, *parentID, excludeID).Scan(&n)
	}
	if err != nil {
		return false, storeErr("check category name", err)
	}
	return n > 0, nil
}

// wouldCycle walks up from the proposed parent; hitting the category
// itself means the move would close a loop.
func (r *Repository) wouldCycle(ctx context.Context, id, newParentID int64) (bool, error) {
	current := newParentID
	for depth := 0; depth < 100; depth++ {
		if current == id {
			return true, nil
		}
		var parent sql.NullInt64
		err := r.db.QueryRowContext(ctx,
			`SELECT parent_id FROM categories WHERE id = ?`, current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, storeErr("walk category ancestors", err)
		}
		if !parent.Valid {
			return false, nil
		}
		current = parent.Int64
	}
	return true, nil
}

func (r *Repository) categoryRefCount(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM categories WHERE parent_id = ?) +
			(SELECT COUNT(*) FROM transactions WHERE category_id = ?) +
			(SELECT COUNT(*) FROM budgets WHERE category_id = ?) +
			(SELECT COUNT(*) FROM categorization_rules WHERE category_id = ?)`,
		id, id, id, id).Scan(&n)
	if err != nil {
		return 0, storeErr("count category references", err)
	}
	return n, nil
}
