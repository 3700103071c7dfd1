package projections

import (
	"context"
	"time"

	eventStore "formations/internal/adapters/storage/event"
	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
)

// EventsQuery carries query parameters.
type EventsQuery struct {
	Kind   event.Kind        // empty lists congresses and webinars
	Since  time.Time         // zero keeps past events
	Status moderation.Status // defaults to published; only the admin asks for another
}

// EventsDeps holds dependencies for QueryEvents.
type EventsDeps struct {
	EventStore EventStore
}

// QueryEvents lists events by start date. An event still running at Since is kept.
func QueryEvents(ctx context.Context, query EventsQuery, deps EventsDeps) ([]event.Event, error) {
	status := query.Status
	if status == "" {
		status = moderation.StatusPublished
	}
	events, err := deps.EventStore.List(ctx, eventStore.ListFilter{Kind: query.Kind, Status: status, Limit: 500})
	if err != nil {
		return nil, err
	}
	if query.Since.IsZero() {
		return events, nil
	}

	out := events[:0]
	for _, e := range events {
		end := e.EndsAt
		if end.IsZero() {
			end = e.StartsAt
		}
		if !end.Before(query.Since) {
			out = append(out, e)
		}
	}
	return out, nil
}
