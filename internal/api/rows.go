package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/remote"
	"github.com/erazemk/zamrzovalnik/internal/rowstore"
)

// RowsHandler serves the per-user row tables.
type RowsHandler struct {
	Store *rowstore.Store
}

type upsertResponse struct {
	Upserted int `json:"upserted"`
}

// Upsert handles PUT /api/rows/{table}. Rows are always stored under the
// caller's owner id.
func (h *RowsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	owner := GetClaims(r.Context()).Subject

	var (
		n   int
		err error
	)
	switch r.PathValue("table") {
	case remote.TableCategories:
		var rows []remote.CategoryRow
		if err := decodeJSON(w, r, &rows); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validIDs(rows, func(c remote.CategoryRow) string { return c.ID }) {
			jsonError(w, http.StatusBadRequest, "every row needs an id")
			return
		}
		n, err = h.Store.UpsertCategories(r.Context(), owner, rows)
	case remote.TableItems:
		var rows []remote.ItemRow
		if err := decodeJSON(w, r, &rows); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validIDs(rows, func(i remote.ItemRow) string { return i.ID }) {
			jsonError(w, http.StatusBadRequest, "every row needs an id")
			return
		}
		n, err = h.Store.UpsertItems(r.Context(), owner, rows)
	default:
		jsonError(w, http.StatusNotFound, "unknown table")
		return
	}
	if err != nil {
		slog.Error("upserting rows", "owner", owner, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store rows")
		return
	}

	jsonResponse(w, http.StatusOK, upsertResponse{Upserted: n})
}

// Since handles GET /api/rows/{table}?since=<RFC3339Nano>.
func (h *RowsHandler) Since(w http.ResponseWriter, r *http.Request) {
	owner := GetClaims(r.Context()).Subject

	if u := r.URL.Query().Get("user_id"); u != "" && u != owner {
		jsonError(w, http.StatusForbidden, "rows belong to another user")
		return
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		var err error
		since, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid since")
			return
		}
	}

	var (
		rows any
		err  error
	)
	switch r.PathValue("table") {
	case remote.TableCategories:
		var cs []remote.CategoryRow
		cs, err = h.Store.CategoriesSince(r.Context(), owner, since)
		rows = cs
	case remote.TableItems:
		var is []remote.ItemRow
		is, err = h.Store.ItemsSince(r.Context(), owner, since)
		rows = is
	default:
		jsonError(w, http.StatusNotFound, "unknown table")
		return
	}
	if err != nil {
		slog.Error("selecting rows", "owner", owner, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read rows")
		return
	}

	jsonResponse(w, http.StatusOK, rows)
}

func validIDs[T any](rows []T, id func(T) string) bool {
	for _, r := range rows {
		if id(r) == "" {
			return false
		}
	}
	return true
}
