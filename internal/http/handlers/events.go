package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// ListEvents — GET /api/events. Пагинация и фильтры уходят на
// внутренний API без интерпретации.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.EventsPath, r.URL.Query(), nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}

// EventByID — GET /api/events/{event_id}.
func (h *Handlers) EventByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("event id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.EventsPath+"/"+id, r.URL.Query(), nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}

// CreateEvent — POST /api/events.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Upstream.Do(r.Context(), http.MethodPost, upstream.EventsPath, nil, r.Body, proxyHeader(r), true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}

// UpdateEvent — PATCH /api/events/{event_id}: частичное обновление,
// тело несёт только изменённые поля.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("event id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodPatch, upstream.EventsPath+"/"+id, nil, r.Body, proxyHeader(r), true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}

// DeleteEvent — DELETE /api/events/{event_id}.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("event id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodDelete, upstream.EventsPath+"/"+id, nil, nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	relay(w, resp)
}
