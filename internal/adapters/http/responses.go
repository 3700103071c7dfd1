package web

import (
	"time"

	"formations/internal/application/catalog"
	"formations/internal/application/listutil"
	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/course"
	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
	"formations/internal/domain/notification"
	"formations/internal/domain/profile"
	"formations/internal/domain/review"
)

// Response bodies. Domain types carry no JSON tags, so every handler that
// returns one converts it here first. Slices are never nil, so lists encode as [].

type priceResponse struct {
	Label       string `json:"label"`
	AmountCents int    `json:"amount_cents"`
}

type sessionPartResponse struct {
	Modality  string    `json:"modality,omitempty"`
	Place     string    `json:"place,omitempty"`
	City      string    `json:"city,omitempty"`
	StartDate time.Time `json:"start_date,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"`
	VisioURL  string    `json:"visio_url,omitempty"`
}

type courseSessionResponse struct {
	ID       string                `json:"id"`
	Position int                   `json:"position"`
	Parts    []sessionPartResponse `json:"parts"`
}

type courseResponse struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	Subtitle       string                  `json:"subtitle"`
	Description    string                  `json:"description"`
	Domain         string                  `json:"domain"`
	Modality       string                  `json:"modality"`
	Prices         []priceResponse         `json:"prices"`
	Funding        []string                `json:"funding"`
	Keywords       []string                `json:"keywords"`
	Populations    []string                `json:"populations"`
	Sessions       []courseSessionResponse `json:"sessions"`
	Status         moderation.Status       `json:"status"`
	AfficheOrder   *int                    `json:"affiche_order"`
	TrainerID      string                  `json:"trainer_id,omitempty"`
	OrganizationID string                  `json:"organization_id,omitempty"`
	PhotoURL       string                  `json:"photo_url,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at,omitzero"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toCourseResponse(c course.Course) courseResponse {
	resp := courseResponse{
		ID:             c.ID,
		Title:          c.Title,
		Subtitle:       c.Subtitle,
		Description:    c.Description,
		Domain:         c.Domain,
		Modality:       c.Modality,
		Prices:         make([]priceResponse, 0, len(c.Prices)),
		Funding:        nonNil(c.Funding),
		Keywords:       nonNil(c.Keywords),
		Populations:    nonNil(c.Populations),
		Sessions:       make([]courseSessionResponse, 0, len(c.Sessions)),
		Status:         c.Status,
		AfficheOrder:   c.AfficheOrder,
		TrainerID:      c.TrainerID,
		OrganizationID: c.OrganizationID,
		PhotoURL:       c.PhotoURL,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	for _, p := range c.Prices {
		resp.Prices = append(resp.Prices, priceResponse{Label: p.Label, AmountCents: p.AmountCents})
	}
	for _, s := range c.Sessions {
		sr := courseSessionResponse{ID: s.ID, Position: s.Position, Parts: make([]sessionPartResponse, 0, len(s.Parts))}
		for _, p := range s.Parts {
			sr.Parts = append(sr.Parts, sessionPartResponse{
				Modality:  p.Modality,
				Place:     p.Place,
				City:      p.City,
				StartDate: p.StartDate,
				EndDate:   p.EndDate,
				VisioURL:  p.VisioURL,
			})
		}
		resp.Sessions = append(resp.Sessions, sr)
	}
	return resp
}

func toCourseResponses(courses []course.Course) []courseResponse {
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	return out
}

// profileResponse hides the linked account; Linked says whether one exists.
type profileResponse struct {
	ID             string       `json:"id"`
	Kind           profile.Kind `json:"kind"`
	Name           string       `json:"name"`
	Bio            string       `json:"bio,omitempty"`
	PhotoURL       string       `json:"photo_url,omitempty"`
	Gender         string       `json:"gender,omitempty"`
	OrganizationID string       `json:"organization_id,omitempty"`
	Linked         bool         `json:"linked"`
	CreatedAt      time.Time    `json:"created_at"`
}

func toProfileResponse(p profile.Profile) profileResponse {
	return profileResponse{
		ID:             p.ID,
		Kind:           p.Kind,
		Name:           p.Name,
		Bio:            p.Bio,
		PhotoURL:       p.PhotoURL,
		Gender:         p.Gender,
		OrganizationID: p.OrganizationID,
		Linked:         p.IsLinked(),
		CreatedAt:      p.CreatedAt,
	}
}

func toProfileResponsePtr(p *profile.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	resp := toProfileResponse(*p)
	return &resp
}

type ratingResponse struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func toRatingResponse(s review.Summary) ratingResponse {
	return ratingResponse{Count: s.Count, Average: s.Average}
}

type reviewResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	AccountID string    `json:"account_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func toReviewResponse(r review.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		CourseID:  r.CourseID,
		AccountID: r.AccountID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// --- Catalog and course pages ---

type catalogEntryResponse struct {
	Course courseResponse `json:"course"`
	Rating ratingResponse `json:"rating"`
}

type catalogResponse struct {
	Entries []catalogEntryResponse `json:"entries"`
	Sort    catalog.Sort           `json:"sort"`
	// Empty drives the "no results" message and its "clear all filters" action.
	Empty bool `json:"empty"`
}

func toCatalogResponse(res catalog.Result) catalogResponse {
	resp := catalogResponse{
		Entries: make([]catalogEntryResponse, 0, len(res.Entries)),
		Sort:    res.Criteria.Sort,
		Empty:   res.Empty,
	}
	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, catalogEntryResponse{Course: toCourseResponse(e.Course), Rating: toRatingResponse(e.Rating)})
	}
	return resp
}

type courseDetailResponse struct {
	Course          courseResponse   `json:"course"`
	DescriptionHTML string           `json:"description_html"`
	Trainer         *profileResponse `json:"trainer"`
	Organization    *profileResponse `json:"organization"`
	Reviews         []reviewResponse `json:"reviews"`
	Rating          ratingResponse   `json:"rating"`
	IsFavorite      bool             `json:"is_favorite"`
	CanEdit         bool             `json:"can_edit"`
}

func toCourseDetailResponse(d projections.CourseDetail) courseDetailResponse {
	resp := courseDetailResponse{
		Course:          toCourseResponse(d.Course),
		DescriptionHTML: d.DescriptionHTML,
		Trainer:         toProfileResponsePtr(d.Trainer),
		Organization:    toProfileResponsePtr(d.Organization),
		Reviews:         make([]reviewResponse, 0, len(d.Reviews)),
		Rating:          toRatingResponse(d.Rating),
		IsFavorite:      d.IsFavorite,
		CanEdit:         d.CanEdit,
	}
	for _, r := range d.Reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(r))
	}
	return resp
}

type favoriteCourseResponse struct {
	Course    courseResponse `json:"course"`
	SavedAt   time.Time      `json:"saved_at"`
	Available bool           `json:"available"`
}

func toFavoritesResponse(favs []projections.FavoriteCourse) []favoriteCourseResponse {
	out := make([]favoriteCourseResponse, 0, len(favs))
	for _, f := range favs {
		out = append(out, favoriteCourseResponse{Course: toCourseResponse(f.Course), SavedAt: f.SavedAt, Available: f.Available})
	}
	return out
}

// --- Owner dashboard ---

type mergeCandidateResponse struct {
	Profile     profileResponse `json:"profile"`
	CourseCount int             `json:"course_count"`
}

type dashboardResponse struct {
	Profile    *profileResponse         `json:"profile"`
	Courses    []courseResponse         `json:"courses"`
	Candidates []mergeCandidateResponse `json:"candidates"`
	Error      string                   `json:"error,omitempty"`
}

func toDashboardResponse(d projections.OwnerDashboard) dashboardResponse {
	resp := dashboardResponse{
		Profile:    toProfileResponsePtr(d.Profile),
		Courses:    toCourseResponses(d.Courses),
		Candidates: make([]mergeCandidateResponse, 0, len(d.Candidates)),
		Error:      d.Error,
	}
	for _, c := range d.Candidates {
		resp.Candidates = append(resp.Candidates, mergeCandidateResponse{Profile: toProfileResponse(c.Profile), CourseCount: c.CourseCount})
	}
	return resp
}

type mergeResponse struct {
	Target       profileResponse `json:"target"`
	MovedCourses int             `json:"moved_courses"`
}

func toMergeResponse(res orchestrators.MergeResult) mergeResponse {
	return mergeResponse{Target: toProfileResponse(res.Target), MovedCourses: res.MovedCourses}
}

// --- Admin ---

type moderationItemResponse struct {
	Course    courseResponse `json:"course"`
	OwnerName string         `json:"owner_name"`
}

type moderationQueueResponse struct {
	Items  []moderationItemResponse `json:"items"`
	Status moderation.Status        `json:"status,omitempty"`
	Page   listutil.PageInfo        `json:"page"`
}

func toModerationQueueResponse(q projections.ModerationQueue) moderationQueueResponse {
	resp := moderationQueueResponse{
		Items:  make([]moderationItemResponse, 0, len(q.Items)),
		Status: q.Status,
		Page:   q.Page,
	}
	for _, it := range q.Items {
		resp.Items = append(resp.Items, moderationItemResponse{Course: toCourseResponse(it.Course), OwnerName: it.OwnerName})
	}
	return resp
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CourseID  string    `json:"course_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	ReadAt    time.Time `json:"read_at,omitzero"`
}

func toNotificationResponse(n notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		CourseID:  n.CourseID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

type notificationsResponse struct {
	Items  []notificationResponse `json:"items"`
	Unread int                    `json:"unread"`
}

func toNotificationsResponse(res projections.AdminNotifications) notificationsResponse {
	resp := notificationsResponse{Items: make([]notificationResponse, 0, len(res.Items)), Unread: res.Unread}
	for _, n := range res.Items {
		resp.Items = append(resp.Items, toNotificationResponse(n))
	}
	return resp
}

// --- Events ---

type eventResponse struct {
	ID             string            `json:"id"`
	Kind           event.Kind        `json:"kind"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	StartsAt       time.Time         `json:"starts_at"`
	EndsAt         time.Time         `json:"ends_at,omitzero"`
	Location       string            `json:"location,omitempty"`
	URL            string            `json:"url,omitempty"`
	OrganizationID string            `json:"organization_id"`
	Status         moderation.Status `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at,omitzero"`
}

func toEventResponse(e event.Event) eventResponse {
	return eventResponse{
		ID:             e.ID,
		Kind:           e.Kind,
		Title:          e.Title,
		Description:    e.Description,
		StartsAt:       e.StartsAt,
		EndsAt:         e.EndsAt,
		Location:       e.Location,
		URL:            e.URL,
		OrganizationID: e.OrganizationID,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toEventResponses(events []event.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}
