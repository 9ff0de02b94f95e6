package remote

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

func TestItemRowUsesSnakeCase(t *testing.T) {
	exp := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	row := ItemToRow("owner-1", model.Item{
		ID:             "i1",
		Name:           "Turkey",
		Quantity:       1.5,
		Unit:           "kg",
		CategoryID:     "meat",
		ExpirationDate: &exp,
		AddedDate:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	})

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, field := range []string{`"user_id":"owner-1"`, `"category_id":"meat"`, `"expiration_date":"2026-12-24T00:00:00Z"`, `"added_date"`, `"updated_at"`, `"deleted_at":null`} {
		if !strings.Contains(body, field) {
			t.Errorf("expected %s in %s", field, body)
		}
	}
	if strings.Contains(body, "categoryId") {
		t.Errorf("local field names must not leak into rows: %s", body)
	}
}

func TestItemMappingPreservesFields(t *testing.T) {
	deleted := time.Date(2026, 10, 3, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	in := model.Item{
		ID:         "i1",
		Name:       "Peas",
		Quantity:   2,
		Unit:       "bags",
		CategoryID: "vegetables",
		AddedDate:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Notes:      "garden",
		UpdatedAt:  time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		DeletedAt:  &deleted,
	}

	out := ItemFromRow(ItemToRow("u", in))
	if out.ID != in.ID || out.Name != in.Name || out.Quantity != in.Quantity ||
		out.Unit != in.Unit || out.CategoryID != in.CategoryID || out.Notes != in.Notes {
		t.Errorf("fields lost in mapping: %+v", out)
	}
	if out.DeletedAt == nil || !out.DeletedAt.Equal(deleted) || out.DeletedAt.Location() != time.UTC {
		t.Errorf("expected deleted_at normalised to UTC, got %v", out.DeletedAt)
	}
	if out.ExpirationDate != nil {
		t.Error("nil expiration must stay nil")
	}
}

func TestCategoryMapping(t *testing.T) {
	in := model.Category{ID: "meat", Name: "Meat", IsDefault: true, SortOrder: 1, UpdatedAt: time.Unix(10, 0)}
	row := CategoryToRow("u", in)
	if !row.IsDefault || row.SortOrder != 1 || row.UserID != "u" {
		t.Errorf("unexpected row: %+v", row)
	}
	out := CategoryFromRow(row)
	if out.ID != "meat" || !out.IsDefault || !out.UpdatedAt.Equal(in.UpdatedAt) {
		t.Errorf("unexpected category: %+v", out)
	}
}
