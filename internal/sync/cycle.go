package sync

import (
	"context"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/remote"
	"github.com/erazemk/zamrzovalnik/internal/store"
)

type result struct {
	pushedCategories int
	pushedItems      int
	pulledCategories int
	pulledItems      int
	watermark        time.Time
}

// reconcile pushes local changes since the watermark, pulls remote changes
// since the watermark and advances it. The watermark is stored only when
// every step succeeded.
func (e *Engine) reconcile(ctx context.Context, owner string) (result, error) {
	var res result

	// Anything written locally from here on carries updated_at >= begun.
	begun := e.now()

	st, err := store.GetSyncState(ctx, e.db)
	if err != nil {
		return res, storageErr("reading watermark", err)
	}
	since := st.LastSyncedAt
	e.update(func(s *State) { s.LastSyncedAt = since })

	latest := since
	seen := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}

	// Push. Categories go first so items never reference a category the
	// remote has not seen.
	categories, err := store.CategoriesUpdatedSince(ctx, e.db, since)
	if err != nil {
		return res, storageErr("reading local categories", err)
	}
	categoryRows := make([]remote.CategoryRow, len(categories))
	for i, c := range categories {
		categoryRows[i] = remote.CategoryToRow(owner, c)
		seen(c.UpdatedAt)
	}
	if err := e.remote.UpsertCategories(ctx, categoryRows); err != nil {
		return res, transportErr("pushing categories", err)
	}
	res.pushedCategories = len(categoryRows)

	items, err := store.ItemsUpdatedSince(ctx, e.db, since)
	if err != nil {
		return res, storageErr("reading local items", err)
	}
	itemRows := make([]remote.ItemRow, len(items))
	for i, it := range items {
		itemRows[i] = remote.ItemToRow(owner, it)
		seen(it.UpdatedAt)
	}
	if err := e.remote.UpsertItems(ctx, itemRows); err != nil {
		return res, transportErr("pushing items", err)
	}
	res.pushedItems = len(itemRows)

	// Pull.
	remoteCategories, err := e.remote.CategoriesSince(ctx, owner, since)
	if err != nil {
		return res, transportErr("pulling categories", err)
	}
	remoteItems, err := e.remote.ItemsSince(ctx, owner, since)
	if err != nil {
		return res, transportErr("pulling items", err)
	}

	for _, row := range remoteCategories {
		seen(row.UpdatedAt)
		applied, err := store.ApplyRemoteCategory(ctx, e.db, remote.CategoryFromRow(row))
		if err != nil {
			return res, storageErr("applying categories", err)
		}
		if applied {
			res.pulledCategories++
		}
	}
	for _, row := range remoteItems {
		seen(row.UpdatedAt)
		applied, err := store.ApplyRemoteItem(ctx, e.db, remote.ItemFromRow(row))
		if err != nil {
			return res, storageErr("applying items", err)
		}
		if applied {
			res.pulledItems++
		}
	}

	// Nothing seen: move to just before the cycle began so an empty window
	// is not rescanned, without skipping writes made during the cycle.
	if len(categories)+len(items)+len(remoteCategories)+len(remoteItems) == 0 {
		if floor := begun.Add(-time.Millisecond); floor.After(latest) {
			latest = floor
		}
	}
	res.watermark = latest.UTC()

	if err := store.SetLastSyncedAt(ctx, e.db, res.watermark); err != nil {
		return res, storageErr("storing watermark", err)
	}

	if e.cache != nil {
		if err := e.cache.Reload(ctx); err != nil {
			return res, storageErr("reloading cache", err)
		}
	}

	return res, nil
}
