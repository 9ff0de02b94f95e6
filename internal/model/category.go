package model

import "time"

// Category groups items. Default categories are seeded on first run and can
// never be deleted.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color"`
	IsDefault bool       `json:"isDefault"`
	SortOrder int        `json:"sortOrder"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// OtherCategoryID is the reserved category that receives items whose
// category is deleted.
const OtherCategoryID = "other"

// DefaultCategories returns the seed categories.
func DefaultCategories() []Category {
	return []Category{
		{ID: "meat", Name: "Meat & Poultry", Icon: "🥩", Color: "red", IsDefault: true, SortOrder: 1},
		{ID: "seafood", Name: "Seafood", Icon: "🐟", Color: "cyan", IsDefault: true, SortOrder: 2},
		{ID: "vegetables", Name: "Vegetables", Icon: "🥦", Color: "green", IsDefault: true, SortOrder: 3},
		{ID: "fruits", Name: "Fruits", Icon: "🍓", Color: "pink", IsDefault: true, SortOrder: 4},
		{ID: "bread", Name: "Bread & Bakery", Icon: "🍞", Color: "amber", IsDefault: true, SortOrder: 5},
		{ID: "prepared", Name: "Prepared Meals", Icon: "🍲", Color: "orange", IsDefault: true, SortOrder: 6},
		{ID: "dairy", Name: "Dairy & Ice Cream", Icon: "🧈", Color: "yellow", IsDefault: true, SortOrder: 7},
		{ID: OtherCategoryID, Name: "Other", Icon: "📦", Color: "gray", IsDefault: true, SortOrder: 99},
	}
}
