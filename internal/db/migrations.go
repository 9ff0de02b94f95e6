package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// migration upgrades the schema from Version-1 to Version. Each one runs in a
// single transaction together with the user_version bump.
type migration struct {
	Version     int
	Description string
	Apply       func(ctx context.Context, tx *sql.Tx, now time.Time) error
}

// migrations are applied in order. Append new migrations at the end.
var migrations = []migration{
	{
		Version:     1,
		Description: "base tables",
		Apply: func(ctx context.Context, tx *sql.Tx, _ time.Time) error {
			_, err := tx.ExecContext(ctx, baseSchema)
			return err
		},
	},
	{
		Version:     2,
		Description: "change tracking and sync state",
		Apply:       addChangeTracking,
	},
}

// addChangeTracking adds updated_at/deleted_at to items and categories,
// backfills existing rows and creates the sync_state singleton.
func addChangeTracking(ctx context.Context, tx *sql.Tx, now time.Time) error {
	stmts := []string{
		`ALTER TABLE items ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE items ADD COLUMN deleted_at INTEGER`,
		`ALTER TABLE categories ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE categories ADD COLUMN deleted_at INTEGER`,
		`CREATE INDEX IF NOT EXISTS idx_items_updated_at ON items(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_updated_at ON categories(updated_at)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
		     id             TEXT PRIMARY KEY CHECK (id = 'state'),
		     last_synced_at INTEGER NOT NULL DEFAULT 0,
		     device_id      TEXT NOT NULL
		 )`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	ms := now.UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET updated_at = ?, deleted_at = NULL WHERE updated_at = 0`, ms,
	); err != nil {
		return fmt.Errorf("backfilling items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET updated_at = ?, deleted_at = NULL WHERE updated_at = 0`, ms,
	); err != nil {
		return fmt.Errorf("backfilling categories: %w", err)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sync_state (id, last_synced_at, device_id) VALUES ('state', 0, ?)`,
		uuid.NewString(),
	)
	if err != nil {
		return fmt.Errorf("creating sync state: %w", err)
	}
	return nil
}

// migrate applies every migration above the recorded version up to target.
func migrate(ctx context.Context, db *sql.DB, target int, now time.Time) error {
	current, err := Version(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current || m.Version > target {
			continue
		}
		if err := applyMigration(ctx, db, m, now); err != nil {
			return fmt.Errorf("running migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.Apply(ctx, tx, now); err != nil {
		return err
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, m.Version)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	return tx.Commit()
}
