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

const itemColumns = `id, name, quantity, unit, category_id, expiration_date, added_date, notes, updated_at, deleted_at`

// NewItem holds the user-supplied fields of an item.
type NewItem struct {
	Name           string
	Quantity       float64
	Unit           string
	CategoryID     string
	ExpirationDate *time.Time
	Notes          string
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	CategoryID string
	Search     string
}

// CreateItem creates a new item. An empty category falls back to "other".
func CreateItem(ctx context.Context, db *sql.DB, in NewItem) (*model.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("creating item: name required")
	}
	if in.CategoryID == "" {
		in.CategoryID = model.OtherCategoryID
	}
	if err := requireCategory(ctx, db, in.CategoryID); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id := uuid.NewString()
	ts := toMillis(now())
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, quantity, unit, category_id, expiration_date, added_date, notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Quantity, in.Unit, in.CategoryID, nullMillis(in.ExpirationDate), ts, in.Notes, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including soft-deleted items.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items, soonest expiry first.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	q := sq.Select(itemColumns).From("items").Where(sq.Eq{"deleted_at": nil})
	if filter.CategoryID != "" {
		q = q.Where(sq.Eq{"category_id": filter.CategoryID})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(sq.Or{
			sq.Like{"LOWER(name)": pattern},
			sq.Like{"LOWER(notes)": pattern},
		})
	}
	q = q.OrderBy("expiration_date IS NULL", "expiration_date", "name")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return scanItems(rows)
}

// ItemsUpdatedSince returns every item, tombstones included, changed after since.
func ItemsUpdatedSince(ctx context.Context, db *sql.DB, since time.Time) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE updated_at > ? ORDER BY updated_at`,
		toMillis(since),
	)
	if err != nil {
		return nil, fmt.Errorf("listing changed items: %w", err)
	}
	return scanItems(rows)
}

// UpdateItem applies a partial update to a non-deleted item and bumps updated_at.
func UpdateItem(ctx context.Context, db *sql.DB, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("updating item: name required")
	}
	if patch.CategoryID != nil {
		if err := requireCategory(ctx, db, *patch.CategoryID); err != nil {
			return nil, fmt.Errorf("updating item: %w", err)
		}
	}

	q := sq.Update("items").
		Set("updated_at", sq.Expr(touch, toMillis(now()))).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.Quantity != nil {
		q = q.Set("quantity", *patch.Quantity)
	}
	if patch.Unit != nil {
		q = q.Set("unit", *patch.Unit)
	}
	if patch.CategoryID != nil {
		q = q.Set("category_id", *patch.CategoryID)
	}
	if patch.ClearExpiry {
		q = q.Set("expiration_date", nil)
	} else if patch.ExpirationDate != nil {
		q = q.Set("expiration_date", toMillis(*patch.ExpirationDate))
	}
	if patch.Notes != nil {
		q = q.Set("notes", *patch.Notes)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item update: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrItemNotFound
	}

	return GetItem(ctx, db, id)
}

// DeleteItem soft-deletes an item. The row stays as a tombstone so the
// deletion reaches other devices.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	ts := toMillis(now())
	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = ?, updated_at = `+touch+`
		 WHERE id = ? AND deleted_at IS NULL`,
		ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ApplyRemoteItem stores item as received from another device. It overwrites
// the local row only when none exists or item.UpdatedAt is strictly newer;
// the comparison and the write are one statement. Reports whether the row
// was written.
func ApplyRemoteItem(ctx context.Context, db *sql.DB, item model.Item) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     quantity = excluded.quantity,
		     unit = excluded.unit,
		     category_id = excluded.category_id,
		     expiration_date = excluded.expiration_date,
		     added_date = excluded.added_date,
		     notes = excluded.notes,
		     updated_at = excluded.updated_at,
		     deleted_at = excluded.deleted_at
		 WHERE excluded.updated_at > items.updated_at`,
		item.ID, item.Name, item.Quantity, item.Unit, item.CategoryID,
		nullMillis(item.ExpirationDate), toMillis(item.AddedDate), item.Notes,
		toMillis(item.UpdatedAt), nullMillis(item.DeletedAt),
	)
	if err != nil {
		return false, fmt.Errorf("applying remote item %s: %w", item.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("applying remote item %s: %w", item.ID, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var expiration, deleted sql.NullInt64
	var added, updated int64
	err := row.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit, &item.CategoryID,
		&expiration, &added, &item.Notes, &updated, &deleted)
	if err != nil {
		return nil, err
	}
	item.ExpirationDate = fromNullMillis(expiration)
	item.AddedDate = fromMillis(added)
	item.UpdatedAt = fromMillis(updated)
	item.DeletedAt = fromNullMillis(deleted)
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// requireCategory checks that id names a non-deleted category.
func requireCategory(ctx context.Context, db *sql.DB, id string) error {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = ? AND deleted_at IS NULL)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return nil
}
