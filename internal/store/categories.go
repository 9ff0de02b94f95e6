package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

const categoryColumns = `id, name, icon, color, is_default, sort_order, updated_at, deleted_at`

// CategoryPatch holds the editable category fields. Nil fields are left unchanged.
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// CreateCategory creates a user category at the end of the sort order.
func CreateCategory(ctx context.Context, db *sql.DB, name, icon, color string) (*model.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("creating category: name required")
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (id, name, icon, color, is_default, sort_order, updated_at)
		 VALUES (?, ?, ?, ?, 0, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories), ?)`,
		id, name, icon, color, toMillis(now()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID, including soft-deleted categories.
func GetCategory(ctx context.Context, db *sql.DB, id string) (*model.Category, error) {
	c, err := scanCategory(db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all non-deleted categories in display order.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE deleted_at IS NULL ORDER BY sort_order, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return scanCategories(rows)
}

// CategoriesUpdatedSince returns every category, tombstones included, changed after since.
func CategoriesUpdatedSince(ctx context.Context, db *sql.DB, since time.Time) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE updated_at > ? ORDER BY updated_at`,
		toMillis(since),
	)
	if err != nil {
		return nil, fmt.Errorf("listing changed categories: %w", err)
	}
	return scanCategories(rows)
}

// UpdateCategory changes a category's name, icon or color.
func UpdateCategory(ctx context.Context, db *sql.DB, id string, patch CategoryPatch) (*model.Category, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("updating category: name required")
	}

	q := sq.Update("categories").
		Set("updated_at", sq.Expr(touch, toMillis(now()))).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.Icon != nil {
		q = q.Set("icon", *patch.Icon)
	}
	if patch.Color != nil {
		q = q.Set("color", *patch.Color)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building category update: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrCategoryNotFound
	}

	return GetCategory(ctx, db, id)
}

// DeleteCategory moves the category's items to "other" and soft-deletes the
// category, in one transaction. Default categories cannot be deleted.
func DeleteCategory(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var isDefault bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_default FROM categories WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&isDefault)
	if err == sql.ErrNoRows {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}
	if isDefault {
		return ErrDefaultCategory
	}

	ts := toMillis(now())
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET category_id = ?, updated_at = `+touch+` WHERE category_id = ?`,
		model.OtherCategoryID, ts, id,
	); err != nil {
		return fmt.Errorf("reassigning items: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET deleted_at = ?, updated_at = `+touch+` WHERE id = ?`,
		ts, ts, id,
	); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category deletion: %w", err)
	}
	return nil
}

// ApplyRemoteCategory stores a category received from another device under
// the same last-write-wins rule as ApplyRemoteItem.
func ApplyRemoteCategory(ctx context.Context, db *sql.DB, c model.Category) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     icon = excluded.icon,
		     color = excluded.color,
		     is_default = excluded.is_default,
		     sort_order = excluded.sort_order,
		     updated_at = excluded.updated_at,
		     deleted_at = excluded.deleted_at
		 WHERE excluded.updated_at > categories.updated_at`,
		c.ID, c.Name, c.Icon, c.Color, c.IsDefault, c.SortOrder,
		toMillis(c.UpdatedAt), nullMillis(c.DeletedAt),
	)
	if err != nil {
		return false, fmt.Errorf("applying remote category %s: %w", c.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("applying remote category %s: %w", c.ID, err)
	}
	return n > 0, nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	var updated int64
	var deleted sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.IsDefault, &c.SortOrder, &updated, &deleted)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = fromMillis(updated)
	c.DeletedAt = fromNullMillis(deleted)
	return &c, nil
}

func scanCategories(rows *sql.Rows) ([]model.Category, error) {
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}
