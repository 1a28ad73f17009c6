package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/model"
)

// ItemsHandler exposes the catalog state as JSON.
type ItemsHandler struct {
	Catalog *catalog.Store
	Log     *slog.Logger
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/items. It accepts the same filters as the browse
// page.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.List(r.Context(), catalog.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		h.Log.Error("failed to list items", "error", err)
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Catalog.GetByID(r.Context(), r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UpdateStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := model.ItemStatus(req.Status)
	if !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	id := r.PathValue("id")
	item, ok := h.Catalog.GetByID(r.Context(), id)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if user := GetUser(r.Context()); user == nil || item.SellerID != user.ID {
		jsonError(w, http.StatusForbidden, "not your listing")
		return
	}
	h.Catalog.Remember(item)

	updated, err := h.Catalog.Update(r.Context(), id, catalog.Patch{Status: &status}, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps client errors onto JSON error responses. Backend failures
// keep the backend's status and message.
func writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, model.ErrNoSession):
		jsonError(w, http.StatusUnauthorized, "not signed in")
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.As(err, &apiErr) && apiErr.Status >= 400:
		jsonError(w, apiErr.Status, apiErr.Message)
	case errors.As(err, &apiErr):
		jsonError(w, http.StatusBadGateway, apiErr.Message)
	default:
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
