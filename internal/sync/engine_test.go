package sync

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zamrzovalnik/internal/db"
	"github.com/erazemk/zamrzovalnik/internal/model"
	"github.com/erazemk/zamrzovalnik/internal/remote"
	"github.com/erazemk/zamrzovalnik/internal/store"
)

func newSeededDB(t *testing.T) *sql.DB {
	t.Helper()
	database := db.NewTestDB(t)
	require.NoError(t, store.Seed(context.Background(), database))
	return database
}

// backdateCategories moves the seeded categories' updated_at to at, so they
// fall behind a watermark set afterwards.
func backdateCategories(t *testing.T, database *sql.DB, at time.Time) {
	t.Helper()
	_, err := database.Exec(`UPDATE categories SET updated_at = ?`, at.UnixMilli())
	require.NoError(t, err)
}

func ms(v int64) time.Time { return time.UnixMilli(v).UTC() }

func watermark(t *testing.T, database *sql.DB) time.Time {
	t.Helper()
	st, err := store.GetSyncState(context.Background(), database)
	require.NoError(t, err)
	return st.LastSyncedAt
}

func TestNotConfiguredIsNoop(t *testing.T) {
	database := newSeededDB(t)
	r := newFakeRemote()
	r.configured = false

	st, err := New(database, r).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.LastError)
	assert.Zero(t, r.cycles(), "session must not be read")
	assert.Empty(t, r.pushed)
}

func TestSignedOutIsNoop(t *testing.T) {
	database := newSeededDB(t)
	r := newFakeRemote()
	r.session = nil

	st, err := New(database, r).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, r.pushed)
	assert.True(t, watermark(t, database).Equal(ms(0)))
}

func TestFirstSyncPushesEverything(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	r := newFakeRemote()

	item, err := store.CreateItem(ctx, database, store.NewItem{Name: "Peas", Quantity: 1, CategoryID: "vegetables"})
	require.NoError(t, err)

	st, err := New(database, r).SyncNow(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusIdle, st.Status, st.LastError)

	assert.Len(t, r.categories, len(model.DefaultCategories()))
	require.Contains(t, r.items, item.ID)
	assert.Equal(t, "owner-1", r.items[item.ID].UserID)
	assert.Equal(t, "vegetables", r.items[item.ID].CategoryID)

	// The watermark is the newest row seen.
	assert.True(t, st.LastSyncedAt.Equal(item.UpdatedAt), "watermark %v, item %v", st.LastSyncedAt, item.UpdatedAt)
	assert.True(t, watermark(t, database).Equal(item.UpdatedAt))
}

func TestSecondSyncIsNearNoop(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	r := newFakeRemote()

	_, err := store.CreateItem(ctx, database, store.NewItem{Name: "Peas", CategoryID: "vegetables"})
	require.NoError(t, err)

	clock := time.Now().Add(time.Hour)
	e := New(database, r, WithClock(func() time.Time { return clock }))

	_, err = e.SyncNow(ctx)
	require.NoError(t, err)
	first := watermark(t, database)
	pushed := len(r.pushed)
	itemCount := len(r.items)

	st, err := e.SyncNow(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusIdle, st.Status, st.LastError)

	assert.Len(t, r.pushed, pushed, "nothing new to push")
	assert.Len(t, r.items, itemCount, "no duplicate rows")

	items, err := store.ListItems(ctx, database, store.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// An empty window moves the watermark to just before the cycle began.
	second := watermark(t, database)
	assert.True(t, second.After(first))
	assert.True(t, second.Equal(clock.Add(-time.Millisecond).Truncate(time.Millisecond)), "watermark %v", second)
}

func TestPullLastWriteWins(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	backdateCategories(t, database, ms(1_000))
	require.NoError(t, store.SetLastSyncedAt(ctx, database, ms(10_000)))

	// "older" predates the watermark so only the pull touches it; "newer"
	// changed locally after the watermark and after the remote edit.
	for _, it := range []model.Item{
		{ID: "older", Name: "local", CategoryID: "meat", AddedDate: ms(1), UpdatedAt: ms(5_000)},
		{ID: "newer", Name: "local", CategoryID: "meat", AddedDate: ms(1), UpdatedAt: ms(20_000)},
	} {
		_, err := store.ApplyRemoteItem(ctx, database, it)
		require.NoError(t, err)
	}

	r := newFakeRemote()
	r.pullOnly = true
	for _, id := range []string{"older", "newer", "fresh"} {
		r.items[id] = remote.ItemRow{ID: id, UserID: "owner-1", Name: "remote", CategoryID: "fruits", AddedDate: ms(1), UpdatedAt: ms(15_000)}
	}

	st, err := New(database, r).SyncNow(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusIdle, st.Status, st.LastError)

	got, err := store.GetItem(ctx, database, "older")
	require.NoError(t, err)
	assert.Equal(t, "remote", got.Name, "remote T2 > local T1 wins")
	assert.Equal(t, "fruits", got.CategoryID)
	assert.True(t, got.UpdatedAt.Equal(ms(15_000)))

	got, err = store.GetItem(ctx, database, "newer")
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name, "remote T2 < local T1 keeps local")
	assert.True(t, got.UpdatedAt.Equal(ms(20_000)))

	got, err = store.GetItem(ctx, database, "fresh")
	require.NoError(t, err)
	require.NotNil(t, got, "unknown rows are inserted")

	assert.Contains(t, r.pushed, "item:newer")
	assert.NotContains(t, r.pushed, "item:older")

	// max(since, push max, pull max)
	assert.True(t, st.LastSyncedAt.Equal(ms(20_000)), "watermark %v", st.LastSyncedAt)
}

func TestWatermarkIsMaxOfPushedAndPulled(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	require.NoError(t, store.SetLastSyncedAt(ctx, database, ms(10_000)))

	categories, err := store.ListCategories(ctx, database)
	require.NoError(t, err)
	var pushMax time.Time
	for _, c := range categories {
		if c.UpdatedAt.After(pushMax) {
			pushMax = c.UpdatedAt
		}
	}
	require.True(t, pushMax.After(ms(15_000)))

	r := newFakeRemote()
	r.pullOnly = true
	r.items["remote"] = remote.ItemRow{ID: "remote", UserID: "owner-1", Name: "remote", CategoryID: "meat", AddedDate: ms(1), UpdatedAt: ms(15_000)}

	st, err := New(database, r).SyncNow(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusIdle, st.Status, st.LastError)
	assert.Contains(t, r.pushed, "category:meat")
	assert.True(t, st.LastSyncedAt.Equal(pushMax), "watermark %v, want %v", st.LastSyncedAt, pushMax)
	assert.True(t, watermark(t, database).Equal(pushMax))
}

func TestPullTieKeepsLocal(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)

	_, err := store.ApplyRemoteItem(ctx, database, model.Item{ID: "x", Name: "local", CategoryID: "meat", AddedDate: ms(1), UpdatedAt: ms(5_000)})
	require.NoError(t, err)
	require.NoError(t, store.SetLastSyncedAt(ctx, database, ms(4_000)))

	r := newFakeRemote()
	r.pullOnly = true
	r.items["x"] = remote.ItemRow{ID: "x", UserID: "owner-1", Name: "remote", CategoryID: "meat", AddedDate: ms(1), UpdatedAt: ms(5_000)}

	_, err = New(database, r).SyncNow(ctx)
	require.NoError(t, err)

	got, err := store.GetItem(ctx, database, "x")
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name)
}

func TestTransportFailureKeepsWatermark(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	require.NoError(t, store.SetLastSyncedAt(ctx, database, ms(1_000)))

	r := newFakeRemote()
	r.pullErr = errors.New("connection refused")

	_, err := store.CreateItem(ctx, database, store.NewItem{Name: "Peas"})
	require.NoError(t, err)

	st, err := New(database, r).SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, KindTransport, st.ErrorKind)
	assert.Contains(t, st.LastError, "connection refused")
	assert.Contains(t, st.LastError, "pulling categories")

	assert.True(t, watermark(t, database).Equal(ms(1_000)), "watermark must not advance")
	assert.NotEmpty(t, r.items, "pushes already made stay")

	// The next successful cycle clears the error.
	r.mu.Lock()
	r.pullErr = nil
	r.mu.Unlock()
	st, err = New(database, r).SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.LastError)
	assert.Empty(t, st.ErrorKind)
}

func TestStorageFailure(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec(`INSERT OR IGNORE INTO sync_state`).WillReturnError(errors.New("disk I/O error"))

	r := newFakeRemote()
	st, err := New(database, r).SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, KindStorage, st.ErrorKind)
	assert.Contains(t, st.LastError, "disk I/O error")
	assert.Empty(t, r.pushed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageFailureOnWatermarkWrite(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec(`INSERT OR IGNORE INTO sync_state`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT last_synced_at, device_id FROM sync_state`).
		WillReturnRows(sqlmock.NewRows([]string{"last_synced_at", "device_id"}).AddRow(int64(0), "dev"))
	mock.ExpectQuery(`FROM categories`).WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery(`FROM items`).WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectExec(`UPDATE sync_state SET last_synced_at`).WillReturnError(errors.New("database is locked"))

	st, err := New(database, newFakeRemote()).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, KindStorage, st.ErrorKind)
	assert.Contains(t, st.LastError, "storing watermark")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggersCoalesceIntoOneRerun(t *testing.T) {
	database := newSeededDB(t)
	r := newFakeRemote()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New(database, r, WithInterval(0))
	e.Start(ctx)

	select {
	case <-r.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle never started")
	}
	assert.Equal(t, StatusSyncing, e.State().Status)

	e.TriggerSync()
	e.TriggerSync()
	e.TriggerSync()
	close(r.gate)

	require.Eventually(t, func() bool {
		return r.cycles() == 2 && e.State().Status == StatusIdle
	}, 5*time.Second, 10*time.Millisecond)

	// Give a wrongly queued third cycle a chance to show up.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, r.cycles())
}

func TestStartIsIdempotentAndFollowsAuthChanges(t *testing.T) {
	database := newSeededDB(t)
	r := newFakeRemote()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New(database, r, WithInterval(0))
	e.Start(ctx)
	e.Start(ctx)

	require.Eventually(t, func() bool { return r.cycles() == 1 }, 5*time.Second, 10*time.Millisecond)

	r.fireAuth()
	require.Eventually(t, func() bool { return r.cycles() == 2 }, 5*time.Second, 10*time.Millisecond)

	r.mu.Lock()
	listeners := len(r.listeners)
	r.mu.Unlock()
	assert.Equal(t, 1, listeners, "second Start must not subscribe again")
}

func TestPeriodicTrigger(t *testing.T) {
	database := newSeededDB(t)
	r := newFakeRemote()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	New(database, r, WithInterval(20*time.Millisecond)).Start(ctx)

	require.Eventually(t, func() bool { return r.cycles() >= 3 }, 5*time.Second, 10*time.Millisecond)
}

func TestSyncNowWaitsForFreshCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database := newSeededDB(t)
	r := newFakeRemote()
	e := New(database, r, WithInterval(0))
	e.Start(ctx)

	require.Eventually(t, func() bool { return r.cycles() == 1 }, 5*time.Second, 10*time.Millisecond)

	_, err := store.CreateItem(ctx, database, store.NewItem{Name: "Soup", CategoryID: "prepared"})
	require.NoError(t, err)

	st, err := e.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Len(t, r.items, 1)
}

func TestChangedIsClosedOnStateChange(t *testing.T) {
	database := newSeededDB(t)
	e := New(database, newFakeRemote())

	ch := e.Changed()
	_, err := e.SyncNow(context.Background())
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("expected Changed channel to be closed")
	}
}

func TestCacheReloadedAfterSync(t *testing.T) {
	ctx := context.Background()
	database := newSeededDB(t)
	cache := store.NewCache(database)
	require.NoError(t, cache.Reload(ctx))

	r := newFakeRemote()
	r.items["i1"] = remote.ItemRow{ID: "i1", UserID: "owner-1", Name: "Bread", CategoryID: "bread", AddedDate: ms(1), UpdatedAt: ms(10)}

	_, err := New(database, r, WithCache(cache)).SyncNow(ctx)
	require.NoError(t, err)

	items := cache.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].Name)
}
