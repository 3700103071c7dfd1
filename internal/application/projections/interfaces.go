package projections

import (
	"context"

	courseStore "formations/internal/adapters/storage/course"
	eventStore "formations/internal/adapters/storage/event"
	notificationStore "formations/internal/adapters/storage/notification"
	profileStore "formations/internal/adapters/storage/profile"
	"formations/internal/domain/course"
	"formations/internal/domain/event"
	"formations/internal/domain/favorite"
	"formations/internal/domain/notification"
	"formations/internal/domain/profile"
	"formations/internal/domain/review"
)

// CourseStore interface for course queries.
type CourseStore interface {
	GetByID(ctx context.Context, id string) (course.Course, error)
	List(ctx context.Context, filter courseStore.ListFilter) ([]course.Course, error)
	Count(ctx context.Context, filter courseStore.ListFilter) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]course.Course, error)
}

// PublishedCourseLister reads the public catalog in relevance order.
type PublishedCourseLister interface {
	ListPublished(ctx context.Context) ([]course.Course, error)
}

// ProfileStore interface for trainer and organization queries.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	GetByAccount(ctx context.Context, kind profile.Kind, accountID string) (profile.Profile, error)
	ListUnlinkedOwners(ctx context.Context, kind profile.Kind) ([]profileStore.Orphan, error)
}

// ReviewStore interface for review queries.
type ReviewStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]review.Review, error)
}

// RatingSummarizer returns the rating summary of every reviewed course.
type RatingSummarizer interface {
	Summaries(ctx context.Context) (map[string]review.Summary, error)
}

// FavoriteStore interface for favorite queries.
type FavoriteStore interface {
	Exists(ctx context.Context, accountID, courseID string) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]favorite.Favorite, error)
}

// NotificationStore interface for admin notification queries.
type NotificationStore interface {
	List(ctx context.Context, filter notificationStore.ListFilter) ([]notification.Notification, error)
	CountUnread(ctx context.Context) (int, error)
}

// EventStore interface for congress and webinar queries.
type EventStore interface {
	List(ctx context.Context, filter eventStore.ListFilter) ([]event.Event, error)
}
