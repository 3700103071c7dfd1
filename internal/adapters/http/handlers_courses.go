package web

import (
	"net/http"

	"formations/internal/application/catalog"
	"formations/internal/application/listutil"
	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/moderation"
)

// handleCatalog serves the public catalog for the filters and sort in the query string.
// GET /api/catalog?q=&domain=&modality=&funding=&population=&city=&sort=
func handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := catalog.ParseSort(q.Get("sort"))
	if err != nil {
		writeError(w, err)
		return
	}
	criteria := catalog.Criteria{
		Query:      q.Get("q"),
		Domain:     q.Get("domain"),
		Modality:   q.Get("modality"),
		Funding:    q.Get("funding"),
		Population: q.Get("population"),
		City:       q.Get("city"),
		Sort:       sort,
	}
	result, err := projections.QueryCatalog(r.Context(), criteria, projections.CatalogDeps{Catalog: catalogCache})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(result))
}

func handleCourseDetail(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	detail, err := projections.QueryCourseDetail(r.Context(), projections.CourseDetailQuery{
		CourseID:  r.PathValue("id"),
		AccountID: actor.AccountID,
		IsAdmin:   actor.IsAdmin(),
	}, projections.CourseDetailDeps{
		CourseStore:   stores.CourseStore,
		ProfileStore:  stores.ProfileStore,
		ReviewStore:   stores.ReviewStore,
		FavoriteStore: stores.FavoriteStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseDetailResponse(detail))
}

func handleSubmitCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req courseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := orchestrators.ExecuteSubmitCourse(r.Context(), orchestrators.SubmitCourseInput{
		Actor:          actor,
		Content:        req.edit(),
		OrganizationID: req.OrganizationID,
	}, orchestrators.SubmitCourseDeps{
		CourseStore:       stores.CourseStore,
		ProfileStore:      stores.ProfileStore,
		NotificationStore: stores.NotificationStore,
		OutboxStore:       stores.OutboxStore,
		Metrics:           appMetrics,
		GenerateID:        generateID,
		Now:               timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseResponse(c))
}

func handleEditCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req courseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := orchestrators.ExecuteEditCourse(r.Context(), orchestrators.EditCourseInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
		Content:  req.edit(),
	}, orchestrators.EditCourseDeps{
		CourseStore:       stores.CourseStore,
		ProfileStore:      stores.ProfileStore,
		NotificationStore: stores.NotificationStore,
		OutboxStore:       stores.OutboxStore,
		Catalog:           catalogCache,
		Metrics:           appMetrics,
		GenerateID:        generateID,
		Now:               timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(c))
}

func handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteCourse(r.Context(), orchestrators.DeleteCourseInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
	}, orchestrators.DeleteCourseDeps{
		CourseStore:  stores.CourseStore,
		ProfileStore: stores.ProfileStore,
		Catalog:      catalogCache,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Admin moderation ---

func setCourseStatusDeps() orchestrators.SetCourseStatusDeps {
	return orchestrators.SetCourseStatusDeps{
		CourseStore: stores.CourseStore,
		Catalog:     catalogCache,
		Metrics:     appMetrics,
		Now:         timeNow,
	}
}

// handleSetCourseStatus moves a course to any status. POST /api/admin/courses/{id}/status
func handleSetCourseStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := moderation.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := orchestrators.ExecuteSetCourseStatus(r.Context(), orchestrators.SetCourseStatusInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
		Status:   status,
	}, setCourseStatusDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(c))
}

func handleSetAfficheOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req afficheRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := orchestrators.ExecuteSetAfficheOrder(r.Context(), orchestrators.SetAfficheOrderInput{
		Actor:    actor,
		CourseID: r.PathValue("id"),
		Order:    req.Order,
	}, setCourseStatusDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(c))
}

// handleModerationQueue pages through courses by status.
// GET /api/admin/moderation?status=&page=&per_page=
func handleModerationQueue(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	var status moderation.Status
	if raw := q.Get("status"); raw != "" {
		var err error
		if status, err = moderation.ParseStatus(raw); err != nil {
			writeError(w, err)
			return
		}
	}
	queue, err := projections.QueryModerationQueue(r.Context(), projections.ModerationQueueQuery{
		Status: status,
		Page:   listutil.ParsePageParams(q),
	}, projections.ModerationQueueDeps{
		CourseStore:  stores.CourseStore,
		ProfileStore: stores.ProfileStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toModerationQueueResponse(queue))
}
