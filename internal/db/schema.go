package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the version EnsureSchema upgrades to.
const SchemaVersion = 2

// baseSchema is the version 1 layout, before change tracking existed.
const baseSchema = `
CREATE TABLE IF NOT EXISTS categories (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    icon       TEXT NOT NULL DEFAULT '',
    color      TEXT NOT NULL DEFAULT '',
    is_default INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order);

CREATE TABLE IF NOT EXISTS items (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    quantity        REAL NOT NULL DEFAULT 1,
    unit            TEXT NOT NULL DEFAULT '',
    category_id     TEXT NOT NULL,
    expiration_date INTEGER,
    added_date      INTEGER NOT NULL,
    notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_items_category_id ON items(category_id);
CREATE INDEX IF NOT EXISTS idx_items_expiration_date ON items(expiration_date);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and brings them up to SchemaVersion.
// Safe to call on every start.
func EnsureSchema(db *sql.DB) error {
	if err := migrate(context.Background(), db, SchemaVersion, time.Now()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Version returns the schema version recorded in the database.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
