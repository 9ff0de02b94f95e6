package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/zamrzovalnik/internal/store"
)

// Session is an authenticated remote session.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the session token is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}

// ParseSession reads the owner and expiry out of a session token. The
// signature is not checked here; the server does that on every request.
func ParseSession(token string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("parsing session token: missing subject")
	}

	s := &Session{Token: token, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// TokenStore persists the session token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// sessionTokenKey is the settings key holding the session token.
const sessionTokenKey = "session_token"

// SettingsTokenStore keeps the token in the local settings table.
type SettingsTokenStore struct {
	DB *sql.DB
}

// LoadToken returns the stored token, or "" if there is none.
func (s SettingsTokenStore) LoadToken(ctx context.Context) (string, error) {
	token, _, err := store.GetValue(ctx, s.DB, sessionTokenKey)
	return token, err
}

// SaveToken stores token.
func (s SettingsTokenStore) SaveToken(ctx context.Context, token string) error {
	return store.SetValue(ctx, s.DB, sessionTokenKey, token)
}

// ClearToken removes the stored token.
func (s SettingsTokenStore) ClearToken(ctx context.Context) error {
	return store.DeleteValue(ctx, s.DB, sessionTokenKey)
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	token string
}

// LoadToken returns the token.
func (m *MemoryTokenStore) LoadToken(context.Context) (string, error) { return m.token, nil }

// SaveToken replaces the token.
func (m *MemoryTokenStore) SaveToken(_ context.Context, token string) error {
	m.token = token
	return nil
}

// ClearToken forgets the token.
func (m *MemoryTokenStore) ClearToken(context.Context) error {
	m.token = ""
	return nil
}
