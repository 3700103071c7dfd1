package projections

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"formations/internal/adapters/storage"
	"formations/internal/domain/course"
	"formations/internal/domain/profile"
	"formations/internal/domain/review"
)

// Raw HTML in descriptions is dropped; goldmark escapes it unless WithUnsafe is set.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// CourseDetailQuery carries query parameters.
type CourseDetailQuery struct {
	CourseID  string
	AccountID string // viewer, empty when anonymous
	IsAdmin   bool
}

// CourseDetail is everything the course page shows.
type CourseDetail struct {
	Course          course.Course
	DescriptionHTML string
	Trainer         *profile.Profile
	Organization    *profile.Profile
	Reviews         []review.Review
	Rating          review.Summary
	IsFavorite      bool
	CanEdit         bool
}

// CourseDetailDeps holds dependencies for QueryCourseDetail.
type CourseDetailDeps struct {
	CourseStore   CourseStore
	ProfileStore  ProfileStore
	ReviewStore   ReviewStore
	FavoriteStore FavoriteStore // optional
}

// QueryCourseDetail loads one course with its owners and reviews.
// Unpublished courses are visible to the admin and to their owner only.
// PRE: CourseID is non-empty
// POST: Returns the detail, or an error wrapping storage.ErrNotFound when hidden or missing
func QueryCourseDetail(ctx context.Context, query CourseDetailQuery, deps CourseDetailDeps) (CourseDetail, error) {
	c, err := deps.CourseStore.GetByID(ctx, query.CourseID)
	if err != nil {
		return CourseDetail{}, err
	}

	detail := CourseDetail{Course: c}
	if detail.Trainer, err = optionalProfile(ctx, deps.ProfileStore, c.TrainerID); err != nil {
		return CourseDetail{}, err
	}
	if detail.Organization, err = optionalProfile(ctx, deps.ProfileStore, c.OrganizationID); err != nil {
		return CourseDetail{}, err
	}

	detail.CanEdit = query.AccountID != "" &&
		(ownedByAccount(detail.Trainer, query.AccountID) || ownedByAccount(detail.Organization, query.AccountID))
	if !c.Status.IsPublished() && !query.IsAdmin && !detail.CanEdit {
		return CourseDetail{}, fmt.Errorf("course %s: %w", c.ID, storage.ErrNotFound)
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(c.Description), &buf); err != nil {
		return CourseDetail{}, fmt.Errorf("render description: %w", err)
	}
	detail.DescriptionHTML = buf.String()

	if detail.Reviews, err = deps.ReviewStore.ListByCourse(ctx, c.ID); err != nil {
		return CourseDetail{}, err
	}
	detail.Rating = review.Summarize(detail.Reviews)

	if deps.FavoriteStore != nil && query.AccountID != "" {
		if detail.IsFavorite, err = deps.FavoriteStore.Exists(ctx, query.AccountID, c.ID); err != nil {
			return CourseDetail{}, err
		}
	}
	return detail, nil
}

// optionalProfile loads a referenced profile; a dangling reference reads as none.
func optionalProfile(ctx context.Context, store ProfileStore, id string) (*profile.Profile, error) {
	if id == "" {
		return nil, nil
	}
	p, err := store.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func ownedByAccount(p *profile.Profile, accountID string) bool {
	return p != nil && p.AccountID == accountID
}
