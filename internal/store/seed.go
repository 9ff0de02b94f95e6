package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

// Seed writes the default categories and settings on first run. Categories
// are only seeded into an empty table, so a device that already synced
// (or deleted its own categories) is left alone.
func Seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("counting categories: %w", err)
	}

	if count == 0 {
		ts := toMillis(now())
		for _, c := range model.DefaultCategories() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO categories (id, name, icon, color, is_default, sort_order, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Name, c.Icon, c.Color, c.IsDefault, c.SortOrder, ts,
			)
			if err != nil {
				return fmt.Errorf("seeding category %s: %w", c.ID, err)
			}
		}
	}

	for key, value := range settingsToValues(model.DefaultSettings()) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value,
		); err != nil {
			return fmt.Errorf("seeding setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}
