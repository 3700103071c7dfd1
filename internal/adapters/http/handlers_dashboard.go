package web

import (
	"errors"
	"log/slog"
	"net/http"

	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/account"
)

func claimDeps() orchestrators.ClaimProfileDeps {
	return orchestrators.ClaimProfileDeps{
		ProfileStore: stores.ProfileStore,
		Metrics:      appMetrics,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

// handleDashboard links the caller to their profile, then shows it with its courses.
// A failed claim renders the unavailable dashboard instead of partial state.
// GET /api/dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	kind, ok := account.ProfileKindForRole(actor.Role)
	if !ok {
		writeError(w, orchestrators.ErrForbidden)
		return
	}

	ctx := r.Context()
	claim, err := orchestrators.ExecuteClaimProfile(ctx, orchestrators.ClaimProfileInput{Actor: actor}, claimDeps())
	if len(claim.MergedIDs) > 0 {
		catalogCache.Invalidate()
	}
	if err != nil {
		if errors.Is(err, orchestrators.ErrForbidden) || errors.Is(err, orchestrators.ErrUnauthenticated) {
			writeError(w, err)
			return
		}
		slog.Error("dashboard_unavailable", "account_id", actor.AccountID, "error", err)
		writeJSON(w, http.StatusOK, toDashboardResponse(projections.UnavailableDashboard()))
		return
	}

	dash, err := projections.QueryOwnerDashboard(ctx, projections.OwnerDashboardQuery{
		AccountID: actor.AccountID,
		Kind:      kind,
	}, projections.OwnerDashboardDeps{
		CourseStore:  stores.CourseStore,
		ProfileStore: stores.ProfileStore,
	})
	if err != nil {
		slog.Error("dashboard_unavailable", "account_id", actor.AccountID, "error", err)
		writeJSON(w, http.StatusOK, toDashboardResponse(projections.UnavailableDashboard()))
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(dash))
}

// handleMergeProfile absorbs a differently named orphan profile. POST /api/dashboard/merge
func handleMergeProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req mergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := orchestrators.ExecuteMergeProfile(r.Context(), orchestrators.MergeProfileInput{
		Actor:    actor,
		OrphanID: req.OrphanID,
	}, claimDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	catalogCache.Invalidate()
	writeJSON(w, http.StatusOK, toMergeResponse(res))
}
