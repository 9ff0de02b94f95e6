// Package remote is the client side of the remote row store: the row shapes
// it speaks, the mapping to and from the local model, and an HTTP client.
package remote

import "time"

// CategoryRow is a category as stored remotely.
type CategoryRow struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color"`
	IsDefault bool       `json:"is_default"`
	SortOrder int        `json:"sort_order"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// ItemRow is an item as stored remotely.
type ItemRow struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	CategoryID     string     `json:"category_id"`
	ExpirationDate *time.Time `json:"expiration_date"`
	AddedDate      time.Time  `json:"added_date"`
	Notes          string     `json:"notes"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at"`
}

// Tables.
const (
	TableItems      = "items"
	TableCategories = "categories"
)
