package web

import (
	"net/http"

	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
)

// handleSubmitReview creates or replaces the caller's review. POST /api/courses/{id}/reviews
func handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rv, err := orchestrators.ExecuteSubmitReview(r.Context(), orchestrators.SubmitReviewInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
		Rating:   req.Rating,
		Comment:  req.Comment,
	}, orchestrators.SubmitReviewDeps{
		CourseStore: stores.CourseStore,
		ReviewStore: stores.ReviewStore,
		Catalog:     catalogCache,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rv))
}

type favoriteResponse struct {
	Favorite bool `json:"favorite"`
}

func handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	saved, err := orchestrators.ExecuteToggleFavorite(r.Context(), orchestrators.ToggleFavoriteInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
	}, orchestrators.ToggleFavoriteDeps{
		CourseStore:   stores.CourseStore,
		FavoriteStore: stores.FavoriteStore,
		Now:           timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{Favorite: saved})
}

func handleFavorites(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	favs, err := projections.QueryFavorites(r.Context(), actor.AccountID, projections.FavoritesDeps{
		FavoriteStore: stores.FavoriteStore,
		CourseStore:   stores.CourseStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFavoritesResponse(favs))
}
