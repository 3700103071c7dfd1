package event

import (
	"context"

	domain "formations/internal/domain/event"
	"formations/internal/domain/moderation"
)

// ListFilter narrows an event listing. Zero values match everything.
type ListFilter struct {
	Kind           domain.Kind
	Status         moderation.Status
	OrganizationID string
	Limit          int
	Offset         int
}

// Store persists congresses and webinars.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, e domain.Event) error
	Delete(ctx context.Context, id string) error
	// List returns matching events by start date, soonest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}
