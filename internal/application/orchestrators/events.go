package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"formations/internal/adapters/metrics"
	"formations/internal/domain/account"
	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
	"formations/internal/domain/notification"
	"formations/internal/domain/profile"
)

// EventStoreForOrchestrator defines the store interface needed by event workflows.
type EventStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
	Delete(ctx context.Context, id string) error
}

// EventDeps holds dependencies for the congress and webinar workflows.
type EventDeps struct {
	EventStore        EventStoreForOrchestrator
	ProfileStore      ProfileLookup
	NotificationStore NotificationSaver
	Metrics           *metrics.Metrics
	GenerateID        func() string
	Now               func() time.Time
}

// SubmitEventInput carries input for the submit event orchestrator.
type SubmitEventInput struct {
	Actor   Actor
	Kind    event.Kind
	Content event.Edit
}

// ExecuteSubmitEvent stores a new congress or webinar awaiting moderation.
// Organizations submit under their linked profile; an admin submission has no organization.
// PRE: Actor is an organization or the admin
// POST: Event saved as pending; admin notification attempted
func ExecuteSubmitEvent(ctx context.Context, input SubmitEventInput, deps EventDeps) (event.Event, error) {
	if !input.Actor.Authenticated() {
		return event.Event{}, ErrUnauthenticated
	}

	now := deps.Now()
	e := event.Event{ID: deps.GenerateID(), Kind: input.Kind, CreatedAt: now}
	owner := input.Actor.DisplayName
	if !input.Actor.IsAdmin() {
		if input.Actor.Role != account.RoleOrganization {
			return event.Event{}, ErrForbidden
		}
		org, err := ownerProfile(ctx, deps.ProfileStore, input.Actor)
		if err != nil {
			return event.Event{}, err
		}
		e.OrganizationID = org.ID
		owner = org.Name
	}

	e.ApplyOwnerEdit(input.Content, now)
	e.UpdatedAt = time.Time{}
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return event.Event{}, err
	}

	deps.Metrics.StatusTransition(string(e.Kind), "none", string(e.Status))
	slog.Info("event_event", "event", "event_submitted", "event_id", e.ID, "kind", string(e.Kind), "by", input.Actor.AccountID)

	note := notification.Notification{
		ID:        deps.GenerateID(),
		Message:   fmt.Sprintf("Nouvel événement à modérer : %s (%s)", e.Title, ownerLabel(owner)),
		CreatedAt: now,
	}
	if err := deps.NotificationStore.Save(ctx, note); err != nil {
		slog.Warn("event_event", "event", "admin_notification_failed", "event_id", e.ID, "error", err)
	}
	return e, nil
}

// EditEventInput carries input for the edit event orchestrator.
type EditEventInput struct {
	Actor   Actor
	EventID string
	Content event.Edit
}

// ExecuteEditEvent applies the owning organization's edit and sends the event back to moderation.
// PRE: Actor is the organization linked to the event
// POST: Content replaced, status pending
func ExecuteEditEvent(ctx context.Context, input EditEventInput, deps EventDeps) (event.Event, error) {
	e, err := ownedEvent(ctx, input.Actor, input.EventID, deps)
	if err != nil {
		return event.Event{}, err
	}

	previous := e.Status
	e.ApplyOwnerEdit(input.Content, deps.Now())
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return event.Event{}, err
	}

	deps.Metrics.StatusTransition(string(e.Kind), string(previous), string(e.Status))
	slog.Info("event_event", "event", "event_edited", "event_id", e.ID, "previous_status", string(previous))
	return e, nil
}

// SetEventStatusInput carries input for the set event status orchestrator.
type SetEventStatusInput struct {
	Actor   Actor
	EventID string
	Status  moderation.Status
}

// ExecuteSetEventStatus moves an event among pending, published and rejected.
// PRE: Actor is admin
// POST: Status saved, or error with the stored event unchanged
func ExecuteSetEventStatus(ctx context.Context, input SetEventStatusInput, deps EventDeps) (event.Event, error) {
	if !input.Actor.IsAdmin() {
		return event.Event{}, ErrForbidden
	}
	e, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return event.Event{}, err
	}

	previous := e.Status
	if err := e.SetStatus(input.Status, moderation.ActorAdmin, deps.Now()); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return event.Event{}, err
	}

	deps.Metrics.StatusTransition(string(e.Kind), string(previous), string(e.Status))
	slog.Info("event_event", "event", "event_status_changed", "event_id", e.ID, "from", string(previous), "to", string(e.Status))
	return e, nil
}

// DeleteEventInput carries input for the delete event orchestrator.
type DeleteEventInput struct {
	Actor   Actor
	EventID string
}

// ExecuteDeleteEvent removes an event.
// PRE: Actor is admin or the owning organization
func ExecuteDeleteEvent(ctx context.Context, input DeleteEventInput, deps EventDeps) error {
	var e event.Event
	var err error
	if input.Actor.IsAdmin() {
		e, err = deps.EventStore.GetByID(ctx, input.EventID)
	} else {
		e, err = ownedEvent(ctx, input.Actor, input.EventID, deps)
	}
	if err != nil {
		return err
	}
	if err := deps.EventStore.Delete(ctx, e.ID); err != nil {
		return err
	}
	slog.Info("event_event", "event", "event_deleted", "event_id", e.ID, "by", input.Actor.AccountID)
	return nil
}

// ownedEvent loads an event and checks the actor's organization runs it.
func ownedEvent(ctx context.Context, actor Actor, id string, deps EventDeps) (event.Event, error) {
	if !actor.Authenticated() {
		return event.Event{}, ErrUnauthenticated
	}
	if actor.Role != account.RoleOrganization {
		return event.Event{}, ErrForbidden
	}
	org, err := ownerProfile(ctx, deps.ProfileStore, actor)
	if err != nil {
		return event.Event{}, err
	}
	e, err := deps.EventStore.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}
	if e.OrganizationID == "" || e.OrganizationID != org.ID || org.Kind != profile.KindOrganization {
		return event.Event{}, ErrForbidden
	}
	return e, nil
}
