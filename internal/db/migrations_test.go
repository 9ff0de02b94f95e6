package db

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func TestEnsureSchemaFreshDatabase(t *testing.T) {
	database := NewTestDB(t)
	ctx := context.Background()

	v, err := Version(ctx, database)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, v)
	}

	var watermark int64
	var deviceID string
	err = database.QueryRowContext(ctx,
		`SELECT last_synced_at, device_id FROM sync_state WHERE id = 'state'`,
	).Scan(&watermark, &deviceID)
	if err != nil {
		t.Fatalf("reading sync state: %v", err)
	}
	if watermark != 0 {
		t.Errorf("expected zero watermark, got %d", watermark)
	}
	if len(deviceID) != 36 {
		t.Errorf("expected a UUID device id, got %q", deviceID)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)
	ctx := context.Background()

	var before string
	database.QueryRowContext(ctx, `SELECT device_id FROM sync_state`).Scan(&before)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var count int
	var after string
	database.QueryRowContext(ctx, `SELECT COUNT(*), MAX(device_id) FROM sync_state`).Scan(&count, &after)
	if count != 1 {
		t.Errorf("expected exactly one sync state row, got %d", count)
	}
	if before != after {
		t.Errorf("device id changed on re-run: %q -> %q", before, after)
	}
}

func TestUpgradeBackfillsExistingRows(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	ctx := context.Background()

	if err := migrate(ctx, database, 1, time.Now()); err != nil {
		t.Fatalf("migrating to v1: %v", err)
	}

	// Rows written by a version 1 client.
	mustExec(t, database, `INSERT INTO categories (id, name, is_default, sort_order) VALUES ('meat', 'Meat', 1, 1)`)
	mustExec(t, database, `INSERT INTO items (id, name, category_id, added_date) VALUES ('a', 'Peas', 'meat', 1)`)

	upgradedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := migrate(ctx, database, 2, upgradedAt); err != nil {
		t.Fatalf("migrating to v2: %v", err)
	}

	var updatedAt int64
	var deletedAt sql.NullInt64
	err = database.QueryRowContext(ctx, `SELECT updated_at, deleted_at FROM items WHERE id = 'a'`).Scan(&updatedAt, &deletedAt)
	if err != nil {
		t.Fatalf("reading item: %v", err)
	}
	if updatedAt != upgradedAt.UnixMilli() {
		t.Errorf("expected backfilled updated_at %d, got %d", upgradedAt.UnixMilli(), updatedAt)
	}
	if deletedAt.Valid {
		t.Error("expected deleted_at to be NULL after backfill")
	}

	err = database.QueryRowContext(ctx, `SELECT updated_at FROM categories WHERE id = 'meat'`).Scan(&updatedAt)
	if err != nil {
		t.Fatalf("reading category: %v", err)
	}
	if updatedAt != upgradedAt.UnixMilli() {
		t.Errorf("expected backfilled category updated_at, got %d", updatedAt)
	}

	// A second run must not re-apply the ALTER TABLE statements.
	if err := migrate(ctx, database, 2, time.Now()); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}

func TestFailedMigrationLeavesVersion(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	ctx := context.Background()

	if err := migrate(ctx, database, 1, time.Now()); err != nil {
		t.Fatal(err)
	}
	// Make the v2 ALTER TABLE fail by pre-creating the column.
	mustExec(t, database, `ALTER TABLE items ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0`)

	if err := migrate(ctx, database, 2, time.Now()); err == nil {
		t.Fatal("expected migration to fail")
	}

	v, _ := Version(ctx, database)
	if v != 1 {
		t.Errorf("expected version to stay at 1 after failed migration, got %d", v)
	}

	var tables int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'sync_state'`).Scan(&tables)
	if tables != 0 {
		t.Error("expected sync_state creation to be rolled back")
	}
}

func mustExec(t *testing.T, db *sql.DB, query string) {
	t.Helper()
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
