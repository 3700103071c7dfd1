package event_test

import (
	"testing"
	"time"

	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
)

var start = time.Date(2026, 9, 18, 9, 0, 0, 0, time.UTC)

// TestEvent_Validate tests validation of Event.
func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		e       event.Event
		wantErr error
	}{
		{"valid congress", event.Event{Kind: event.KindCongress, Title: "Congrès UNADREO", StartsAt: start, EndsAt: start.AddDate(0, 0, 2), Status: moderation.StatusPending}, nil},
		{"valid webinar", event.Event{Kind: event.KindWebinar, Title: "Bégaiement", StartsAt: start, Status: moderation.StatusPublished}, nil},
		{"empty title", event.Event{Kind: event.KindWebinar, StartsAt: start, Status: moderation.StatusPending}, event.ErrEmptyTitle},
		{"bad kind", event.Event{Kind: "fair", Title: "x", StartsAt: start, Status: moderation.StatusPending}, event.ErrInvalidKind},
		{"no start", event.Event{Kind: event.KindWebinar, Title: "x", Status: moderation.StatusPending}, event.ErrMissingStart},
		{"ends early", event.Event{Kind: event.KindCongress, Title: "x", StartsAt: start, EndsAt: start.Add(-time.Hour), Status: moderation.StatusPending}, event.ErrEndBeforeStart},
		{"archived", event.Event{Kind: event.KindWebinar, Title: "x", StartsAt: start, Status: moderation.StatusArchived}, event.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestEvent_SetStatus tests admin moves among the event statuses.
func TestEvent_SetStatus(t *testing.T) {
	e := event.Event{Kind: event.KindWebinar, Title: "x", StartsAt: start, Status: moderation.StatusPending}
	for _, to := range []moderation.Status{moderation.StatusPublished, moderation.StatusRejected, moderation.StatusPending, moderation.StatusRejected} {
		if err := e.SetStatus(to, moderation.ActorAdmin, start); err != nil {
			t.Fatalf("SetStatus(%s): %v", to, err)
		}
		if e.Status != to {
			t.Fatalf("status = %s, want %s", e.Status, to)
		}
	}
	if err := e.SetStatus(moderation.StatusArchived, moderation.ActorAdmin, start); err != event.ErrInvalidStatus {
		t.Errorf("archive error = %v, want ErrInvalidStatus", err)
	}
}

// TestEvent_ApplyOwnerEdit tests that edits force pending.
func TestEvent_ApplyOwnerEdit(t *testing.T) {
	e := event.Event{Kind: event.KindCongress, Title: "Old", StartsAt: start, Status: moderation.StatusPublished}
	e.ApplyOwnerEdit(event.Edit{Title: " New ", StartsAt: start, Location: "Nantes"}, start)
	if e.Status != moderation.StatusPending || e.Title != "New" || e.Location != "Nantes" {
		t.Errorf("event = %+v", e)
	}
}
