package model

import "time"

// Item is a single freezer entry. IDs are generated on the device that
// created the item and never change.
type Item struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	CategoryID     string     `json:"categoryId"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	AddedDate      time.Time  `json:"addedDate"`
	Notes          string     `json:"notes,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the item is a tombstone.
func (i *Item) Deleted() bool {
	return i.DeletedAt != nil
}

// ItemPatch holds the fields of a partial item update. Nil fields are left
// unchanged.
type ItemPatch struct {
	Name           *string
	Quantity       *float64
	Unit           *string
	CategoryID     *string
	ExpirationDate *time.Time
	ClearExpiry    bool
	Notes          *string
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil && p.CategoryID == nil &&
		p.ExpirationDate == nil && !p.ClearExpiry && p.Notes == nil
}
