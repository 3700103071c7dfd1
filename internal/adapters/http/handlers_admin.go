package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"formations/internal/application/listutil"
	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/outbox"
)

// --- Notifications ---

// handleAdminNotifications lists admin notifications, unread first.
// GET /api/admin/notifications?unread=1&page=&per_page=
func handleAdminNotifications(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	unreadOnly, _ := strconv.ParseBool(q.Get("unread"))
	res, err := projections.QueryAdminNotifications(r.Context(), projections.AdminNotificationsQuery{
		UnreadOnly: unreadOnly,
		Page:       listutil.ParsePageParams(q),
	}, projections.AdminNotificationsDeps{NotificationStore: stores.NotificationStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationsResponse(res))
}

func handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	n, err := orchestrators.ExecuteMarkNotificationRead(r.Context(), orchestrators.MarkNotificationReadInput{
		Actor:          actor,
		NotificationID: r.PathValue("id"),
	}, orchestrators.MarkNotificationReadDeps{NotificationStore: stores.NotificationStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponse(n))
}

// --- Outbox ---

type outboxEntryResponse struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	LastAttemptedAt time.Time `json:"last_attempted_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	ExternalID      string    `json:"external_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

func toOutboxResponse(entries []outbox.Entry) []outboxEntryResponse {
	out := make([]outboxEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, outboxEntryResponse{
			ID:              e.ID,
			ActionType:      e.ActionType,
			Status:          e.Status,
			Attempts:        e.Attempts,
			MaxAttempts:     e.MaxAttempts,
			LastAttemptedAt: e.LastAttemptedAt,
			CreatedAt:       e.CreatedAt,
			ExternalID:      e.ExternalID,
			ErrorMessage:    e.ErrorMessage,
		})
	}
	return out
}

// handleAdminOutboxList lists failed deliveries, or the pending queue with status=pending.
// GET /api/admin/outbox?status=&limit=
func handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	limit := 50
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var entries []outbox.Entry
	var err error
	if q.Get("status") == outbox.StatusPending {
		entries, err = stores.OutboxStore.ListPending(r.Context(), limit)
	} else {
		entries, err = stores.OutboxStore.ListFailed(r.Context(), limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutboxResponse(entries))
}

type outboxActionResponse struct {
	Status string `json:"status"`
}

func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, "retry triggered", (*orchestrators.OutboxProcessor).ProcessSingle)
}

func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, "abandoned", (*orchestrators.OutboxProcessor).AbandonEntry)
}

func outboxAction(w http.ResponseWriter, r *http.Request, done string,
	action func(*orchestrators.OutboxProcessor, context.Context, string) error) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if outboxProcessor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "outbox worker is not running"})
		return
	}
	if err := action(outboxProcessor, r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outboxActionResponse{Status: done})
}

// --- Operations ---

// handleAdminPerf reports request and query timings over the last window.
// GET /api/admin/perf?minutes=60
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "performance collection is disabled"})
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 && n <= 24*60 {
		minutes = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}

type healthResponse struct {
	Status string `json:"status"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
