package orchestrators

import (
	"context"
	"errors"
	"fmt"

	"formations/internal/adapters/storage"
	"formations/internal/domain/account"
	"formations/internal/domain/profile"
)

// Actor is the authenticated caller of a workflow, taken from the request session.
// The zero Actor is anonymous.
type Actor struct {
	AccountID   string
	DisplayName string
	Role        string
}

// IsAdmin returns true if the actor moderates content.
func (a Actor) IsAdmin() bool {
	return a.Role == account.RoleAdmin
}

// Authenticated returns true if the actor is signed in.
func (a Actor) Authenticated() bool {
	return a.AccountID != ""
}

// Authorization errors shared by the workflows.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("you are not allowed to do this")
	ErrNoLinkedProfile = errors.New("account has no linked trainer or organization profile")
)

// ProfileLookup finds the profile linked to an account.
type ProfileLookup interface {
	GetByAccount(ctx context.Context, kind profile.Kind, accountID string) (profile.Profile, error)
}

// ProfileResolver also resolves profiles named by the client.
type ProfileResolver interface {
	ProfileLookup
	GetByID(ctx context.Context, id string) (profile.Profile, error)
}

// CatalogInvalidator drops the cached public catalog.
type CatalogInvalidator interface {
	Invalidate()
}

// ownerProfile returns the trainer or organization profile linked to actor.
// PRE: actor is authenticated
// POST: ErrForbidden for roles that own no profile, ErrNoLinkedProfile before the first claim
func ownerProfile(ctx context.Context, lookup ProfileLookup, actor Actor) (profile.Profile, error) {
	kind, ok := account.ProfileKindForRole(actor.Role)
	if !ok {
		return profile.Profile{}, ErrForbidden
	}
	p, err := lookup.GetByAccount(ctx, kind, actor.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return profile.Profile{}, ErrNoLinkedProfile
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("lookup linked profile: %w", err)
	}
	return p, nil
}

func invalidate(c CatalogInvalidator) {
	if c != nil {
		c.Invalidate()
	}
}
