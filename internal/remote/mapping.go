package remote

import (
	"time"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

// The remote rows and the local model are kept separate on purpose; these
// functions are the only place the two shapes meet.

// CategoryToRow maps a local category to its remote row for owner.
func CategoryToRow(owner string, c model.Category) CategoryRow {
	return CategoryRow{
		ID:        c.ID,
		UserID:    owner,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		IsDefault: c.IsDefault,
		SortOrder: c.SortOrder,
		UpdatedAt: c.UpdatedAt.UTC(),
		DeletedAt: utcPtr(c.DeletedAt),
	}
}

// CategoryFromRow maps a remote row to a local category.
func CategoryFromRow(r CategoryRow) model.Category {
	return model.Category{
		ID:        r.ID,
		Name:      r.Name,
		Icon:      r.Icon,
		Color:     r.Color,
		IsDefault: r.IsDefault,
		SortOrder: r.SortOrder,
		UpdatedAt: r.UpdatedAt.UTC(),
		DeletedAt: utcPtr(r.DeletedAt),
	}
}

// ItemToRow maps a local item to its remote row for owner.
func ItemToRow(owner string, i model.Item) ItemRow {
	return ItemRow{
		ID:             i.ID,
		UserID:         owner,
		Name:           i.Name,
		Quantity:       i.Quantity,
		Unit:           i.Unit,
		CategoryID:     i.CategoryID,
		ExpirationDate: utcPtr(i.ExpirationDate),
		AddedDate:      i.AddedDate.UTC(),
		Notes:          i.Notes,
		UpdatedAt:      i.UpdatedAt.UTC(),
		DeletedAt:      utcPtr(i.DeletedAt),
	}
}

// ItemFromRow maps a remote row to a local item.
func ItemFromRow(r ItemRow) model.Item {
	return model.Item{
		ID:             r.ID,
		Name:           r.Name,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		CategoryID:     r.CategoryID,
		ExpirationDate: utcPtr(r.ExpirationDate),
		AddedDate:      r.AddedDate.UTC(),
		Notes:          r.Notes,
		UpdatedAt:      r.UpdatedAt.UTC(),
		DeletedAt:      utcPtr(r.DeletedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
