package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"formations/internal/adapters/metrics"
	"formations/internal/adapters/storage"
	"formations/internal/domain/account"
	"formations/internal/domain/profile"
)

// ProfileStoreForClaim defines the store interface needed by the claim and merge workflows.
type ProfileStoreForClaim interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	GetByAccount(ctx context.Context, kind profile.Kind, accountID string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
	ListUnlinked(ctx context.Context, kind profile.Kind) ([]profile.Profile, error)
	MergeInto(ctx context.Context, orphanID, targetID string) (int, error)
}

// Claim outcomes
const (
	ClaimLinked  = "linked"  // the account already had its profile
	ClaimClaimed = "claimed" // a single orphan with the account's name was adopted
	ClaimCreated = "created" // a fresh profile was created
)

// ClaimProfileInput carries input for the claim orchestrator.
type ClaimProfileInput struct {
	Actor Actor
}

// ClaimProfileDeps holds dependencies for ClaimProfile.
type ClaimProfileDeps struct {
	ProfileStore ProfileStoreForClaim
	Metrics      *metrics.Metrics
	GenerateID   func() string
	Now          func() time.Time
}

// ClaimResult describes the linked profile and what the sweep merged into it.
type ClaimResult struct {
	Profile      profile.Profile
	Outcome      string
	MergedIDs    []string
	MovedCourses int
}

// ExecuteClaimProfile links the actor's account to exactly one trainer or organization profile.
//
//  1. A profile already linked to the account is used as is.
//  2. Otherwise a single unlinked profile whose name matches the display name
//     (trimmed, case-insensitive) is claimed.
//  3. Otherwise a new profile is created with the display name.
//  4. Every other unlinked profile with the same name is then merged into the
//     linked one: its courses are reassigned and the orphan is deleted.
//
// Each merge is atomic on its own; the sequence as a whole is not, so an
// error part-way leaves earlier steps applied. Running the claim again resumes.
// PRE: Actor is a trainer or organization account
// POST: Returns the linked profile; no orphan with the same name remains
func ExecuteClaimProfile(ctx context.Context, input ClaimProfileInput, deps ClaimProfileDeps) (ClaimResult, error) {
	actor := input.Actor
	if !actor.Authenticated() {
		return ClaimResult{}, ErrUnauthenticated
	}
	kind, ok := account.ProfileKindForRole(actor.Role)
	if !ok {
		return ClaimResult{}, ErrForbidden
	}

	result, err := establishLink(ctx, actor, kind, deps)
	if err != nil {
		deps.Metrics.Claim("failed")
		slog.Error("profile_event", "event", "claim_failed", "account_id", actor.AccountID, "error", err)
		return ClaimResult{}, err
	}
	deps.Metrics.Claim(result.Outcome)

	orphans, err := deps.ProfileStore.ListUnlinked(ctx, kind)
	if err != nil {
		return result, fmt.Errorf("list unlinked profiles: %w", err)
	}
	for _, o := range orphans {
		if o.ID == result.Profile.ID || !o.MatchesName(result.Profile.Name) {
			continue
		}
		moved, err := deps.ProfileStore.MergeInto(ctx, o.ID, result.Profile.ID)
		if err != nil {
			slog.Error("profile_event", "event", "auto_merge_failed", "orphan_id", o.ID, "target_id", result.Profile.ID, "error", err)
			return result, fmt.Errorf("merge duplicate %s: %w", o.ID, err)
		}
		deps.Metrics.Merge(moved)
		result.MergedIDs = append(result.MergedIDs, o.ID)
		result.MovedCourses += moved
		slog.Info("profile_event", "event", "profile_auto_merged", "orphan_id", o.ID, "target_id", result.Profile.ID, "courses", moved)
	}
	return result, nil
}

// establishLink runs steps 1 to 3 of the claim.
func establishLink(ctx context.Context, actor Actor, kind profile.Kind, deps ClaimProfileDeps) (ClaimResult, error) {
	linked, err := deps.ProfileStore.GetByAccount(ctx, kind, actor.AccountID)
	if err == nil {
		return ClaimResult{Profile: linked, Outcome: ClaimLinked}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return ClaimResult{}, fmt.Errorf("lookup linked profile: %w", err)
	}

	orphans, err := deps.ProfileStore.ListUnlinked(ctx, kind)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("list unlinked profiles: %w", err)
	}
	var matches []profile.Profile
	for _, o := range orphans {
		if o.MatchesName(actor.DisplayName) {
			matches = append(matches, o)
		}
	}

	if len(matches) == 1 {
		p := matches[0]
		if err := p.Claim(actor.AccountID); err != nil {
			return ClaimResult{}, err
		}
		if err := deps.ProfileStore.Save(ctx, p); err != nil {
			return ClaimResult{}, fmt.Errorf("claim profile %s: %w", p.ID, err)
		}
		slog.Info("profile_event", "event", "profile_claimed", "profile_id", p.ID, "account_id", actor.AccountID)
		return ClaimResult{Profile: p, Outcome: ClaimClaimed}, nil
	}

	p := profile.Profile{
		ID:        deps.GenerateID(),
		Kind:      kind,
		Name:      actor.DisplayName,
		AccountID: actor.AccountID,
		CreatedAt: deps.Now(),
	}
	if err := p.Validate(); err != nil {
		return ClaimResult{}, err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return ClaimResult{}, fmt.Errorf("create profile: %w", err)
	}
	slog.Info("profile_event", "event", "profile_created", "profile_id", p.ID, "account_id", actor.AccountID, "kind", string(kind))
	return ClaimResult{Profile: p, Outcome: ClaimCreated}, nil
}

// --- Manual merge ---

// MergeProfileInput carries input for the manual merge orchestrator.
type MergeProfileInput struct {
	Actor    Actor
	OrphanID string
}

// MergeResult reports a manual merge.
type MergeResult struct {
	Target       profile.Profile
	MovedCourses int
}

// ExecuteMergeProfile moves every course of an orphan onto the actor's linked profile and deletes the orphan.
// The orphan's bio and photo are discarded.
// PRE: Actor has a linked profile; orphan is unlinked and of the same kind
// POST: Linked profile owns N+M courses; orphan no longer exists
func ExecuteMergeProfile(ctx context.Context, input MergeProfileInput, deps ClaimProfileDeps) (MergeResult, error) {
	if !input.Actor.Authenticated() {
		return MergeResult{}, ErrUnauthenticated
	}
	target, err := ownerProfile(ctx, deps.ProfileStore, input.Actor)
	if err != nil {
		return MergeResult{}, err
	}

	orphan, err := deps.ProfileStore.GetByID(ctx, input.OrphanID)
	if err != nil {
		return MergeResult{}, err
	}
	if orphan.IsLinked() {
		return MergeResult{}, profile.ErrNotOrphan
	}
	if orphan.Kind != target.Kind {
		return MergeResult{}, profile.ErrKindMismatch
	}

	moved, err := deps.ProfileStore.MergeInto(ctx, orphan.ID, target.ID)
	if err != nil {
		return MergeResult{}, err
	}
	deps.Metrics.Merge(moved)
	slog.Info("profile_event", "event", "profile_merged", "orphan_id", orphan.ID, "target_id", target.ID, "courses", moved, "by", input.Actor.AccountID)
	return MergeResult{Target: target, MovedCourses: moved}, nil
}
