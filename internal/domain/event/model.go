package event

import (
	"errors"
	"strings"
	"time"

	"formations/internal/domain/moderation"
)

// Kind distinguishes congresses from webinars.
type Kind string

// Event kinds
const (
	KindCongress Kind = "congress"
	KindWebinar  Kind = "webinar"
)

// Domain errors
var (
	ErrEmptyTitle     = errors.New("event title cannot be empty")
	ErrInvalidKind    = errors.New("event kind must be one of: congress, webinar")
	ErrMissingStart   = errors.New("event start date is required")
	ErrEndBeforeStart = errors.New("event cannot end before it starts")
	ErrInvalidStatus  = errors.New("event status must be one of: pending, published, rejected")
)

// Event is a congress or a webinar, optionally run by an organization.
type Event struct {
	ID             string
	Kind           Kind
	Title          string
	Description    string
	StartsAt       time.Time
	EndsAt         time.Time
	Location       string // congress venue
	URL            string // webinar link or registration page
	OrganizationID string
	Status         moderation.Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Edit carries the content fields an owner may change.
type Edit struct {
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	Location    string
	URL         string
}

// ParseKind converts raw input into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindCongress, KindWebinar:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.Kind != KindCongress && e.Kind != KindWebinar {
		return ErrInvalidKind
	}
	if e.StartsAt.IsZero() {
		return ErrMissingStart
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return ErrEndBeforeStart
	}
	if !e.Status.ValidForEvent() {
		return ErrInvalidStatus
	}
	return nil
}

// ApplyOwnerEdit replaces content fields and sends the event back to moderation.
// POST: Status is pending, UpdatedAt set
func (e *Event) ApplyOwnerEdit(edit Edit, now time.Time) {
	e.Title = strings.TrimSpace(edit.Title)
	e.Description = edit.Description
	e.StartsAt = edit.StartsAt
	e.EndsAt = edit.EndsAt
	e.Location = edit.Location
	e.URL = edit.URL
	e.Status = moderation.StatusPending
	e.UpdatedAt = now
}

// SetStatus moves the event to a new status on behalf of actor.
// PRE: to is one of the event statuses
// POST: Status updated, or error with the event unchanged
func (e *Event) SetStatus(to moderation.Status, actor moderation.Actor, now time.Time) error {
	if !to.ValidForEvent() {
		return ErrInvalidStatus
	}
	next, err := moderation.Transition(e.Status, to, actor)
	if err != nil {
		return err
	}
	e.Status = next
	e.UpdatedAt = now
	return nil
}
