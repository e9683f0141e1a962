package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// ListCategories — GET /api/categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.CategoriesPath, r.URL.Query(), nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}

// CategoryByID — GET /api/categories/{category_id}.
func (h *Handlers) CategoryByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "category_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("category id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.CategoriesPath+"/"+id, nil, nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}
