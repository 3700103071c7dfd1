package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"formations/internal/domain/course"
	"formations/internal/domain/favorite"
	"formations/internal/domain/review"
)

// ErrCourseNotPublished is returned when reviewing or saving a course that is not public.
var ErrCourseNotPublished = errors.New("course is not published")

// CourseReader loads a single course.
type CourseReader interface {
	GetByID(ctx context.Context, id string) (course.Course, error)
}

// ReviewUpserter stores one review per (account, course).
type ReviewUpserter interface {
	Upsert(ctx context.Context, r review.Review) (review.Review, error)
}

// --- Submit Review ---

// SubmitReviewInput carries input for the submit review orchestrator.
type SubmitReviewInput struct {
	Actor    Actor
	CourseID string
	Rating   int
	Comment  string
}

// SubmitReviewDeps holds dependencies for SubmitReview.
type SubmitReviewDeps struct {
	CourseStore CourseReader
	ReviewStore ReviewUpserter
	Catalog     CatalogInvalidator
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSubmitReview creates the actor's review of a course, or replaces it.
// PRE: Actor is authenticated; course is published
// POST: Exactly one review by the actor exists for the course, carrying this rating and comment
func ExecuteSubmitReview(ctx context.Context, input SubmitReviewInput, deps SubmitReviewDeps) (review.Review, error) {
	if !input.Actor.Authenticated() {
		return review.Review{}, ErrUnauthenticated
	}
	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return review.Review{}, err
	}
	if !c.Status.IsPublished() {
		return review.Review{}, ErrCourseNotPublished
	}

	now := deps.Now()
	r := review.Review{
		ID:        deps.GenerateID(),
		CourseID:  c.ID,
		AccountID: input.Actor.AccountID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Validate(); err != nil {
		return review.Review{}, err
	}
	stored, err := deps.ReviewStore.Upsert(ctx, r)
	if err != nil {
		return review.Review{}, err
	}

	// Ratings feed the catalog's rating sort.
	invalidate(deps.Catalog)
	slog.Info("review_event", "event", "review_submitted", "review_id", stored.ID, "course_id", c.ID, "rating", stored.Rating)
	return stored, nil
}

// --- Toggle Favorite ---

// FavoriteStoreForToggle defines the store interface needed by ToggleFavorite.
type FavoriteStoreForToggle interface {
	Exists(ctx context.Context, accountID, courseID string) (bool, error)
	Add(ctx context.Context, f favorite.Favorite) error
	Remove(ctx context.Context, accountID, courseID string) error
}

// ToggleFavoriteInput carries input for the toggle favorite orchestrator.
type ToggleFavoriteInput struct {
	Actor    Actor
	CourseID string
}

// ToggleFavoriteDeps holds dependencies for ToggleFavorite.
type ToggleFavoriteDeps struct {
	CourseStore   CourseReader
	FavoriteStore FavoriteStoreForToggle
	Now           func() time.Time
}

// ExecuteToggleFavorite saves the course for the actor, or unsaves it if already saved.
// Unsaving is allowed for a course that has since left the catalog.
// POST: Returns true if the course is now a favorite
func ExecuteToggleFavorite(ctx context.Context, input ToggleFavoriteInput, deps ToggleFavoriteDeps) (bool, error) {
	if !input.Actor.Authenticated() {
		return false, ErrUnauthenticated
	}
	exists, err := deps.FavoriteStore.Exists(ctx, input.Actor.AccountID, input.CourseID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := deps.FavoriteStore.Remove(ctx, input.Actor.AccountID, input.CourseID); err != nil {
			return false, err
		}
		slog.Info("favorite_event", "event", "favorite_removed", "course_id", input.CourseID, "account_id", input.Actor.AccountID)
		return false, nil
	}

	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return false, err
	}
	if !c.Status.IsPublished() {
		return false, ErrCourseNotPublished
	}
	f := favorite.Favorite{AccountID: input.Actor.AccountID, CourseID: c.ID, CreatedAt: deps.Now()}
	if err := f.Validate(); err != nil {
		return false, err
	}
	if err := deps.FavoriteStore.Add(ctx, f); err != nil {
		return false, err
	}
	slog.Info("favorite_event", "event", "favorite_added", "course_id", c.ID, "account_id", input.Actor.AccountID)
	return true, nil
}
