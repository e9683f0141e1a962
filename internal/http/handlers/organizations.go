package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// OrganizationByID — GET /api/organizations/{organization_id}.
func (h *Handlers) OrganizationByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "organization_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("organization id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.OrganizationsPath+"/"+id, nil, nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}
