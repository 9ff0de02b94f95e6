package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/remote"
)

// batchSize bounds the rows per INSERT statement.
const batchSize = 100

var categoryColumns = []string{"user_id", "id", "name", "icon", "color", "is_default", "sort_order", "updated_at", "deleted_at"}

var itemColumns = []string{"user_id", "id", "name", "quantity", "unit", "category_id", "expiration_date", "added_date", "notes", "updated_at", "deleted_at"}

type categoryRecord struct {
	UserID    string        `db:"user_id"`
	ID        string        `db:"id"`
	Name      string        `db:"name"`
	Icon      string        `db:"icon"`
	Color     string        `db:"color"`
	IsDefault bool          `db:"is_default"`
	SortOrder int           `db:"sort_order"`
	UpdatedAt int64         `db:"updated_at"`
	DeletedAt sql.NullInt64 `db:"deleted_at"`
}

type itemRecord struct {
	UserID         string        `db:"user_id"`
	ID             string        `db:"id"`
	Name           string        `db:"name"`
	Quantity       float64       `db:"quantity"`
	Unit           string        `db:"unit"`
	CategoryID     string        `db:"category_id"`
	ExpirationDate sql.NullInt64 `db:"expiration_date"`
	AddedDate      int64         `db:"added_date"`
	Notes          string        `db:"notes"`
	UpdatedAt      int64         `db:"updated_at"`
	DeletedAt      sql.NullInt64 `db:"deleted_at"`
}

// UpsertCategories writes rows for owner, replacing rows with the same id.
// The user_id on each row is ignored in favour of owner.
func (s *Store) UpsertCategories(ctx context.Context, owner string, rows []remote.CategoryRow) (int, error) {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{owner, r.ID, r.Name, r.Icon, r.Color, r.IsDefault, r.SortOrder,
			r.UpdatedAt.UnixMilli(), nullMillis(r.DeletedAt)}
	}
	values = lastByID(values)
	if err := s.upsert(ctx, remote.TableCategories, categoryColumns, values); err != nil {
		return 0, fmt.Errorf("upserting categories: %w", err)
	}
	return len(values), nil
}

// UpsertItems writes rows for owner, replacing rows with the same id.
func (s *Store) UpsertItems(ctx context.Context, owner string, rows []remote.ItemRow) (int, error) {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{owner, r.ID, r.Name, r.Quantity, r.Unit, r.CategoryID,
			nullMillis(r.ExpirationDate), r.AddedDate.UnixMilli(), r.Notes,
			r.UpdatedAt.UnixMilli(), nullMillis(r.DeletedAt)}
	}
	values = lastByID(values)
	if err := s.upsert(ctx, remote.TableItems, itemColumns, values); err != nil {
		return 0, fmt.Errorf("upserting items: %w", err)
	}
	return len(values), nil
}

// lastByID drops all but the last row for each id. Postgres refuses to
// update the same row twice in one INSERT ... ON CONFLICT.
func lastByID(values [][]any) [][]any {
	last := make(map[any]int, len(values))
	for i, v := range values {
		last[v[1]] = i
	}
	if len(last) == len(values) {
		return values
	}
	out := make([][]any, 0, len(last))
	for i, v := range values {
		if last[v[1]] == i {
			out = append(out, v)
		}
	}
	return out
}

// upsert inserts values in batches inside one transaction.
func (s *Store) upsert(ctx context.Context, table string, columns []string, values [][]any) error {
	if len(values) == 0 {
		return nil
	}

	// Columns after the (user_id, id) key are overwritten on conflict.
	set := make([]string, 0, len(columns)-2)
	for _, c := range columns[2:] {
		set = append(set, c+" = excluded."+c)
	}
	suffix := "ON CONFLICT (user_id, id) DO UPDATE SET " + strings.Join(set, ", ")

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(values); start += batchSize {
		end := min(start+batchSize, len(values))

		q := s.sq.Insert(table).Columns(columns...)
		for _, v := range values[start:end] {
			q = q.Values(v...)
		}
		query, args, err := q.Suffix(suffix).ToSql()
		if err != nil {
			return fmt.Errorf("building query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CategoriesSince returns owner's category rows with updated_at after since,
// tombstones included.
func (s *Store) CategoriesSince(ctx context.Context, owner string, since time.Time) ([]remote.CategoryRow, error) {
	query, args, err := s.sinceQuery(remote.TableCategories, categoryColumns, owner, since)
	if err != nil {
		return nil, err
	}

	var recs []categoryRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}

	rows := make([]remote.CategoryRow, len(recs))
	for i, r := range recs {
		rows[i] = remote.CategoryRow{
			ID:        r.ID,
			UserID:    r.UserID,
			Name:      r.Name,
			Icon:      r.Icon,
			Color:     r.Color,
			IsDefault: r.IsDefault,
			SortOrder: r.SortOrder,
			UpdatedAt: fromMillis(r.UpdatedAt),
			DeletedAt: fromNullMillis(r.DeletedAt),
		}
	}
	return rows, nil
}

// ItemsSince returns owner's item rows with updated_at after since,
// tombstones included.
func (s *Store) ItemsSince(ctx context.Context, owner string, since time.Time) ([]remote.ItemRow, error) {
	query, args, err := s.sinceQuery(remote.TableItems, itemColumns, owner, since)
	if err != nil {
		return nil, err
	}

	var recs []itemRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("selecting items: %w", err)
	}

	rows := make([]remote.ItemRow, len(recs))
	for i, r := range recs {
		rows[i] = remote.ItemRow{
			ID:             r.ID,
			UserID:         r.UserID,
			Name:           r.Name,
			Quantity:       r.Quantity,
			Unit:           r.Unit,
			CategoryID:     r.CategoryID,
			ExpirationDate: fromNullMillis(r.ExpirationDate),
			AddedDate:      fromMillis(r.AddedDate),
			Notes:          r.Notes,
			UpdatedAt:      fromMillis(r.UpdatedAt),
			DeletedAt:      fromNullMillis(r.DeletedAt),
		}
	}
	return rows, nil
}

func (s *Store) sinceQuery(table string, columns []string, owner string, since time.Time) (string, []any, error) {
	query, args, err := s.sq.Select(columns...).
		From(table).
		Where("user_id = ?", owner).
		Where("updated_at > ?", since.UnixMilli()).
		OrderBy("updated_at", "id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building query: %w", err)
	}
	return query, args, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
