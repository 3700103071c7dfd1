package projections

import (
	"context"
	"errors"
	"time"

	"formations/internal/adapters/storage"
	"formations/internal/domain/course"
)

// FavoriteCourse is one saved course. Available is false once the course leaves the catalog.
type FavoriteCourse struct {
	Course    course.Course
	SavedAt   time.Time
	Available bool
}

// FavoritesDeps holds dependencies for QueryFavorites.
type FavoritesDeps struct {
	FavoriteStore FavoriteStore
	CourseStore   CourseStore
}

// QueryFavorites lists the courses an account saved, most recent first.
// PRE: accountID is non-empty
func QueryFavorites(ctx context.Context, accountID string, deps FavoritesDeps) ([]FavoriteCourse, error) {
	favs, err := deps.FavoriteStore.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]FavoriteCourse, 0, len(favs))
	for _, f := range favs {
		c, err := deps.CourseStore.GetByID(ctx, f.CourseID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, FavoriteCourse{Course: c, SavedAt: f.CreatedAt, Available: c.Status.IsPublished()})
	}
	return out, nil
}
