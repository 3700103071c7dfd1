package course

import (
	"context"

	domain "formations/internal/domain/course"
	"formations/internal/domain/moderation"
)

// Store persists courses together with their sessions.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Course, error)
	Save(ctx context.Context, c domain.Course) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Course, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	// ListByOwner returns every course of a trainer or organization profile, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Course, error)
	// ListPublished returns the published catalog in relevance input order:
	// affiche_order ascending first, then most recently created.
	ListPublished(ctx context.Context) ([]domain.Course, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	Status  moderation.Status
	OwnerID string // trainer or organization profile
	Limit   int
	Offset  int
}
