package outbox

import (
	"context"

	domain "formations/internal/domain/outbox"
)

// Store persists best-effort outbound actions.
type Store interface {
	// GetByID returns the entry or storage.ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save inserts or updates an entry.
	// PRE: e has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns pending and retrying entries, oldest first.
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that exhausted their attempts, most recently tried first.
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)

	// Delete removes an entry.
	// PRE: entry is terminal
	Delete(ctx context.Context, id string) error
}
