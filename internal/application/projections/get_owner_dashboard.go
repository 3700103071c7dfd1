package projections

import (
	"context"
	"errors"

	"formations/internal/adapters/storage"
	"formations/internal/domain/course"
	"formations/internal/domain/profile"
)

// DashboardUnavailableMessage is shown when the profile link could not be established.
const DashboardUnavailableMessage = "Votre profil est momentanément indisponible. Réessayez dans quelques instants."

// OwnerDashboardQuery carries query parameters.
type OwnerDashboardQuery struct {
	AccountID string
	Kind      profile.Kind
}

// MergeCandidate is an unlinked profile the owner may absorb by hand.
type MergeCandidate struct {
	Profile     profile.Profile
	CourseCount int
}

// OwnerDashboard is the trainer or organization home page.
// Profile is nil when no link exists; Error then carries a message for the owner.
type OwnerDashboard struct {
	Profile    *profile.Profile
	Courses    []course.Course
	Candidates []MergeCandidate
	Error      string
}

// OwnerDashboardDeps holds dependencies for QueryOwnerDashboard.
type OwnerDashboardDeps struct {
	CourseStore  CourseStore
	ProfileStore ProfileStore
}

// UnavailableDashboard is the dashboard rendered when claiming failed.
func UnavailableDashboard() OwnerDashboard {
	return OwnerDashboard{Error: DashboardUnavailableMessage}
}

// QueryOwnerDashboard lists the linked profile, the courses it owns, and the
// orphan profiles of the same kind that own courses under a different name.
// PRE: the claim workflow has run for this account
// POST: Candidates never include a name match (those were merged by the claim)
func QueryOwnerDashboard(ctx context.Context, query OwnerDashboardQuery, deps OwnerDashboardDeps) (OwnerDashboard, error) {
	p, err := deps.ProfileStore.GetByAccount(ctx, query.Kind, query.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return UnavailableDashboard(), nil
	}
	if err != nil {
		return OwnerDashboard{}, err
	}

	courses, err := deps.CourseStore.ListByOwner(ctx, p.ID)
	if err != nil {
		return OwnerDashboard{}, err
	}

	orphans, err := deps.ProfileStore.ListUnlinkedOwners(ctx, query.Kind)
	if err != nil {
		return OwnerDashboard{}, err
	}
	var candidates []MergeCandidate
	for _, o := range orphans {
		if p.MatchesName(o.Profile.Name) {
			continue
		}
		candidates = append(candidates, MergeCandidate{Profile: o.Profile, CourseCount: o.CourseCount})
	}

	return OwnerDashboard{Profile: &p, Courses: courses, Candidates: candidates}, nil
}
