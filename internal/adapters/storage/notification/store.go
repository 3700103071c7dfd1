package notification

import (
	"context"

	domain "formations/internal/domain/notification"
)

// ListFilter narrows a notification listing.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Store persists admin notifications.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notification, error)
	Save(ctx context.Context, n domain.Notification) error
	// List returns unread notifications first, then newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context) (int, error)
}
