package profile

import (
	"context"

	domain "formations/internal/domain/profile"
)

// Store persists trainer and organization profiles.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	// GetByAccount returns the profile of kind linked to accountID, or storage.ErrNotFound.
	GetByAccount(ctx context.Context, kind domain.Kind, accountID string) (domain.Profile, error)
	Save(ctx context.Context, p domain.Profile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Profile, error)
	// ListUnlinked returns every orphan of kind, oldest first.
	ListUnlinked(ctx context.Context, kind domain.Kind) ([]domain.Profile, error)
	// ListUnlinkedOwners returns orphans of kind that own at least one course.
	ListUnlinkedOwners(ctx context.Context, kind domain.Kind) ([]Orphan, error)
	// MergeInto moves everything owned by orphanID onto targetID and deletes the orphan,
	// in one transaction. Returns the number of courses moved.
	MergeInto(ctx context.Context, orphanID, targetID string) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Kind   domain.Kind
	Limit  int
	Offset int
}

// Orphan is an unlinked profile with the number of courses it owns.
type Orphan struct {
	Profile     domain.Profile
	CourseCount int
}
