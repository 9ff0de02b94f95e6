package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

// Cache holds the non-deleted items and categories in memory for reads.
// It is reloaded after local mutations and after every successful sync.
type Cache struct {
	db *sql.DB

	mu         sync.RWMutex
	items      []model.Item
	categories []model.Category
}

// NewCache creates an empty cache over db. Call Reload to fill it.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Reload re-reads items and categories from the database.
func (c *Cache) Reload(ctx context.Context) error {
	categories, err := ListCategories(ctx, c.db)
	if err != nil {
		return err
	}
	items, err := ListItems(ctx, c.db, ItemFilter{})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.categories = categories
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns a copy of the cached items.
func (c *Cache) Items() []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Item(nil), c.items...)
}

// Categories returns a copy of the cached categories in display order.
func (c *Cache) Categories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Category(nil), c.categories...)
}

// Category looks up a cached category by ID.
func (c *Cache) Category(id string) (model.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

// ExpiringSoon returns items that are expiring or should be used soon.
func (c *Cache) ExpiringSoon(now time.Time) []model.Item {
	return c.filter(func(i model.Item) bool {
		return model.ExpirationStatusAt(i.ExpirationDate, now).ExpiringSoon()
	})
}

// Expired returns items past their expiration date.
func (c *Cache) Expired(now time.Time) []model.Item {
	return c.filter(func(i model.Item) bool {
		return model.ExpirationStatusAt(i.ExpirationDate, now) == model.StatusExpired
	})
}

func (c *Cache) filter(keep func(model.Item) bool) []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []model.Item
	for _, i := range c.items {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
