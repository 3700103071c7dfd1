package review

import (
	"context"

	domain "formations/internal/domain/review"
)

// Store persists reviews. At most one review exists per (account, course).
type Store interface {
	// Upsert inserts the review or replaces the rating and comment of the
	// account's existing review of the same course.
	Upsert(ctx context.Context, r domain.Review) (domain.Review, error)
	GetByAccountAndCourse(ctx context.Context, accountID, courseID string) (domain.Review, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error)
	// Summaries returns the rating aggregate of every reviewed course.
	Summaries(ctx context.Context) (map[string]domain.Summary, error)
	Delete(ctx context.Context, id string) error
}
