package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

type userRecord struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRecord) model() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

// CreateUser creates a new account and returns it. The new id is the owner
// id of the account's rows.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`),
		id, username, passwordHash, time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if n == 0 {
		return nil, ErrUserExists
	}

	return s.GetUser(ctx, id)
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var rec userRecord
	err := s.db.GetContext(ctx, &rec, s.db.Rebind(
		`SELECT id, username, password_hash, created_at FROM users WHERE `+column+` = ?`), value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return rec.model(), nil
}
