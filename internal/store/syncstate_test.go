package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/db"
)

func TestSyncStateWatermark(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	state, err := GetSyncState(ctx, database)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if state.LastSyncedAt.UnixMilli() != 0 {
		t.Errorf("expected epoch watermark, got %v", state.LastSyncedAt)
	}

	mark := time.Date(2026, 4, 1, 9, 30, 0, 123000000, time.UTC)
	if err := SetLastSyncedAt(ctx, database, mark); err != nil {
		t.Fatalf("SetLastSyncedAt: %v", err)
	}

	again, _ := GetSyncState(ctx, database)
	if !again.LastSyncedAt.Equal(mark) {
		t.Errorf("expected watermark %v, got %v", mark, again.LastSyncedAt)
	}
	if again.DeviceID != state.DeviceID {
		t.Error("device id must be stable")
	}
}

func TestGetSyncStateRecreatesMissingRow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	database.ExecContext(ctx, `DELETE FROM sync_state`)

	state, err := GetSyncState(ctx, database)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if state.DeviceID == "" || state.LastSyncedAt.UnixMilli() != 0 {
		t.Errorf("expected fresh sync state, got %+v", state)
	}
}
