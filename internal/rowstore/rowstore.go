// Package rowstore is the storage behind the remote row store server: per-user
// item and category rows, accounts, revoked tokens and server settings. It
// runs on SQLite or PostgreSQL.
package rowstore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/erazemk/zamrzovalnik/internal/db"
)

// ErrUserExists is returned when signing up with a taken username.
var ErrUserExists = errors.New("username already taken")

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// schema is valid for both SQLite and PostgreSQL. Timestamps are Unix ms.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti        TEXT PRIMARY KEY,
		expires_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		user_id    TEXT NOT NULL,
		id         TEXT NOT NULL,
		name       TEXT NOT NULL,
		icon       TEXT NOT NULL DEFAULT '',
		color      TEXT NOT NULL DEFAULT '',
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at BIGINT NOT NULL,
		deleted_at BIGINT,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		user_id         TEXT NOT NULL,
		id              TEXT NOT NULL,
		name            TEXT NOT NULL,
		quantity        DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit            TEXT NOT NULL DEFAULT '',
		category_id     TEXT NOT NULL,
		expiration_date BIGINT,
		added_date      BIGINT NOT NULL,
		notes           TEXT NOT NULL DEFAULT '',
		updated_at      BIGINT NOT NULL,
		deleted_at      BIGINT,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_user_updated ON categories(user_id, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_user_updated ON items(user_id, updated_at)`,
}

// Store is a handle on the row store database.
type Store struct {
	db *sqlx.DB
	sq sq.StatementBuilderType
}

// Open connects to the database for driver and makes sure the schema exists.
// For SQLite, dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var x *sqlx.DB
	switch driver {
	case DriverSQLite:
		sqlDB, err := db.Open(dsn)
		if err != nil {
			return nil, err
		}
		x = sqlx.NewDb(sqlDB, DriverSQLite)
	case DriverPostgres:
		var err error
		x, err = sqlx.ConnectContext(ctx, DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	s := New(x)
	if err := s.EnsureSchema(ctx); err != nil {
		x.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The placeholder style follows its driver.
func New(x *sqlx.DB) *Store {
	var ph sq.PlaceholderFormat = sq.Question
	if sqlx.BindType(x.DriverName()) == sqlx.DOLLAR {
		ph = sq.Dollar
	}
	return &Store{db: x, sq: sq.StatementBuilder.PlaceholderFormat(ph)}
}

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
