package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

// GetSyncState returns the sync bookkeeping row, creating it with a zero
// watermark if it is missing.
func GetSyncState(ctx context.Context, db *sql.DB) (*model.SyncState, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sync_state (id, last_synced_at, device_id) VALUES ('state', 0, ?)`,
		uuid.NewString(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync state: %w", err)
	}

	var lastSynced int64
	state := &model.SyncState{}
	err = db.QueryRowContext(ctx,
		`SELECT last_synced_at, device_id FROM sync_state WHERE id = 'state'`,
	).Scan(&lastSynced, &state.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("reading sync state: %w", err)
	}
	state.LastSyncedAt = fromMillis(lastSynced)
	return state, nil
}

// SetLastSyncedAt persists the sync watermark.
func SetLastSyncedAt(ctx context.Context, db *sql.DB, t time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_state SET last_synced_at = ? WHERE id = 'state'`, toMillis(t),
	)
	if err != nil {
		return fmt.Errorf("storing sync watermark: %w", err)
	}
	return nil
}
