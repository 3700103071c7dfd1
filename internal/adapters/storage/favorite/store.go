package favorite

import (
	"context"

	domain "formations/internal/domain/favorite"
)

// Store persists the courses an account has saved.
type Store interface {
	Add(ctx context.Context, f domain.Favorite) error
	Remove(ctx context.Context, accountID, courseID string) error
	Exists(ctx context.Context, accountID, courseID string) (bool, error)
	// ListByAccount returns the account's favorites, most recent first.
	ListByAccount(ctx context.Context, accountID string) ([]domain.Favorite, error)
}
