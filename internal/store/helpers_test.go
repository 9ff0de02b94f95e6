package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/db"
)

// newSeededDB returns an in-memory database with default categories and settings.
func newSeededDB(t *testing.T) *sql.DB {
	t.Helper()
	database := db.NewTestDB(t)
	if err := Seed(context.Background(), database); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return database
}

// freezeClock pins the mutation clock to t for the rest of the test.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}
