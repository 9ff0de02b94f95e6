package store

import "errors"

var (
	// ErrItemNotFound is returned when an item does not exist or is deleted.
	ErrItemNotFound = errors.New("item not found")

	// ErrCategoryNotFound is returned when a category does not exist or is deleted.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDefaultCategory is returned when deleting a default category.
	ErrDefaultCategory = errors.New("cannot delete default categories")
)
