package web

import (
	"errors"
	"net/http"
	"time"

	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
)

var errInvalidSince = errors.New("since must be a date (YYYY-MM-DD)")

func eventDeps() orchestrators.EventDeps {
	return orchestrators.EventDeps{
		EventStore:        stores.EventStore,
		ProfileStore:      stores.ProfileStore,
		NotificationStore: stores.NotificationStore,
		Metrics:           appMetrics,
		GenerateID:        generateID,
		Now:               timeNow,
	}
}

// handleEvents lists published congresses and webinars by start date.
// GET /api/events?kind=&since=YYYY-MM-DD; the admin may also pass status=.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query projections.EventsQuery
	var err error
	if raw := q.Get("kind"); raw != "" {
		if query.Kind, err = event.ParseKind(raw); err != nil {
			writeError(w, err)
			return
		}
	}
	if raw := q.Get("since"); raw != "" {
		if query.Since, err = time.Parse(time.DateOnly, raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidSince.Error()})
			return
		}
	}
	if raw := q.Get("status"); raw != "" {
		if !actorFrom(r).IsAdmin() {
			writeError(w, orchestrators.ErrForbidden)
			return
		}
		if query.Status, err = moderation.ParseStatus(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	events, err := projections.QueryEvents(r.Context(), query, projections.EventsDeps{EventStore: stores.EventStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind, err := event.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := orchestrators.ExecuteSubmitEvent(r.Context(), orchestrators.SubmitEventInput{
		Actor:   actor,
		Kind:    kind,
		Content: req.edit(),
	}, eventDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(e))
}

func handleEditEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := orchestrators.ExecuteEditEvent(r.Context(), orchestrators.EditEventInput{
		Actor:   actor,
		EventID: r.PathValue("id"),
		Content: req.edit(),
	}, eventDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(e))
}

func handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteEvent(r.Context(), orchestrators.DeleteEventInput{
		Actor:   actor,
		EventID: r.PathValue("id"),
	}, eventDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetEventStatus moves an event among pending, published and rejected.
// POST /api/admin/events/{id}/status
func handleSetEventStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := moderation.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := orchestrators.ExecuteSetEventStatus(r.Context(), orchestrators.SetEventStatusInput{
		Actor:   actor,
		EventID: r.PathValue("id"),
		Status:  status,
	}, eventDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(e))
}
