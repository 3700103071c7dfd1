package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formations/internal/adapters/email"
	"formations/internal/adapters/http/middleware"
	"formations/internal/adapters/http/perf"
	"formations/internal/adapters/metrics"
	"formations/internal/adapters/storage/storagetest"
	"formations/internal/adapters/upload"
	"formations/internal/application/catalog"
	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/domain/account"
	"formations/internal/domain/course"
	"formations/internal/domain/moderation"
	"formations/internal/domain/outbox"
	"formations/internal/domain/profile"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	stores  *Stores
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := storagetest.Open(t)
	s := NewSQLiteStores(db)
	m := metrics.New()
	processor := orchestrators.NewOutboxProcessor(s.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeAdminEmail: &orchestrators.AdminEmailExecutor{Sender: email.NewNoopSender()},
	}, m)

	RateLimitPerSecond = 10000
	handler, stop := NewMux(Options{
		Stores:    s,
		Catalog:   catalog.NewCache(projections.NewCatalogLoader(s.CourseStore, s.ReviewStore, m)),
		Outbox:    processor,
		Uploads:   upload.NewStore(t.TempDir(), "/uploads"),
		Metrics:   m,
		Collector: perf.NewCollector(100),
		CSRFKey:   bytes.Repeat([]byte("k"), 32),
		Ping:      db.PingContext,
	})
	t.Cleanup(stop)
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = time.Now })
	return &testServer{handler: handler, stores: s}
}

// signIn stores an account and returns a session cookie for it.
func (ts *testServer) signIn(t *testing.T, id, name, role string) *http.Cookie {
	t.Helper()
	a := account.Account{ID: id, Email: id + "@example.org", DisplayName: name, Role: role, CreatedAt: testNow}
	if err := ts.stores.AccountStore.Save(context.Background(), a); err != nil {
		t.Fatalf("save account: %v", err)
	}
	token, err := sessions.Create(id, name, role)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

// linkProfile stores a profile owned by accountID.
func (ts *testServer) linkProfile(t *testing.T, id string, kind profile.Kind, name, accountID string) {
	t.Helper()
	p := profile.Profile{ID: id, Kind: kind, Name: name, AccountID: accountID, CreatedAt: testNow}
	if err := ts.stores.ProfileStore.Save(context.Background(), p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
}

func (ts *testServer) publishedCourse(t *testing.T, id, title string) {
	t.Helper()
	c := course.Course{
		ID:          id,
		Title:       title,
		Description: "Bilan et **rééducation**.",
		Domain:      "Langage oral",
		Status:      moderation.StatusPublished,
		CreatedAt:   testNow,
	}
	if err := ts.stores.CourseStore.Save(context.Background(), c); err != nil {
		t.Fatalf("save course: %v", err)
	}
}

// do sends a JSON request through the full middleware chain.
func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rr.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func langageOral() map[string]any {
	return map[string]any{
		"title":       "Prise en charge du langage oral",
		"description": "Évaluer et **rééduquer** le langage oral de l'enfant.",
		"domain":      "Langage oral",
		"modality":    course.ModalityInPerson,
		"prices":      []map[string]any{{"label": "Libéral", "amount_cents": 45000}},
		"sessions": []map[string]any{{
			"parts": []map[string]any{{"city": "Lyon", "start_date": "2026-05-11T09:00:00Z"}},
		}},
	}
}

// TestCourseSubmissionToCatalog follows "Prise en charge du langage oral" by Marie Lefort
// from submission through moderation into the public catalog and back out on edit.
func TestCourseSubmissionToCatalog(t *testing.T) {
	ts := newTestServer(t)
	marie := ts.signIn(t, "acct-marie", "Marie Lefort", account.RoleTrainer)
	admin := ts.signIn(t, "acct-admin", "Administration", account.RoleAdmin)

	dash := decode[dashboardResponse](t, ts.do(t, "GET", "/api/dashboard", nil, marie))
	if dash.Profile == nil || dash.Profile.Name != "Marie Lefort" {
		t.Fatalf("dashboard profile = %+v", dash.Profile)
	}

	rr := ts.do(t, "POST", "/api/courses", langageOral(), marie)
	expectStatus(t, rr, http.StatusCreated)
	submitted := decode[courseResponse](t, rr)
	if submitted.Status != moderation.StatusPending || submitted.TrainerID != dash.Profile.ID {
		t.Fatalf("submitted = %+v", submitted)
	}

	res := decode[catalogResponse](t, ts.do(t, "GET", "/api/catalog", nil, nil))
	if !res.Empty {
		t.Errorf("pending course is in the catalog")
	}
	expectStatus(t, ts.do(t, "GET", "/api/courses/"+submitted.ID, nil, nil), http.StatusNotFound)
	expectStatus(t, ts.do(t, "GET", "/api/courses/"+submitted.ID, nil, marie), http.StatusOK)

	notes := decode[notificationsResponse](t, ts.do(t, "GET", "/api/admin/notifications", nil, admin))
	if notes.Unread != 1 || !strings.Contains(notes.Items[0].Message, "Prise en charge du langage oral") {
		t.Errorf("notifications = %+v", notes)
	}

	rr = ts.do(t, "POST", "/api/admin/courses/"+submitted.ID+"/status", map[string]string{"status": "published"}, admin)
	expectStatus(t, rr, http.StatusOK)

	res = decode[catalogResponse](t, ts.do(t, "GET", "/api/catalog?q=langage&city=lyon", nil, nil))
	if len(res.Entries) != 1 || res.Entries[0].Course.ID != submitted.ID {
		t.Fatalf("catalog = %+v", res.Entries)
	}

	detail := decode[courseDetailResponse](t, ts.do(t, "GET", "/api/courses/"+submitted.ID, nil, nil))
	if !strings.Contains(detail.DescriptionHTML, "<strong>rééduquer</strong>") || detail.CanEdit {
		t.Errorf("detail = %+v", detail)
	}

	edit := langageOral()
	edit["subtitle"] = "Enfants de 3 à 6 ans"
	rr = ts.do(t, "PUT", "/api/courses/"+submitted.ID, edit, marie)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[courseResponse](t, rr); got.Status != moderation.StatusPending {
		t.Errorf("status after edit = %s, want pending", got.Status)
	}
	if res := decode[catalogResponse](t, ts.do(t, "GET", "/api/catalog", nil, nil)); !res.Empty {
		t.Error("edited course still listed")
	}

	queue := decode[moderationQueueResponse](t, ts.do(t, "GET", "/api/admin/moderation?status=pending", nil, admin))
	if len(queue.Items) != 1 || queue.Items[0].OwnerName != "Marie Lefort" {
		t.Errorf("queue = %+v", queue.Items)
	}
}

// TestCourseAffiliationMustBeOrganization keeps a trainer from naming another
// trainer's profile as the organization, which would hand that trainer edit rights.
func TestCourseAffiliationMustBeOrganization(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signIn(t, "acct-alice", "Alice Martin", account.RoleTrainer)
	bob := ts.signIn(t, "acct-bob", "Bob Marchal", account.RoleTrainer)
	ts.linkProfile(t, "pa", profile.KindTrainer, "Alice Martin", "acct-alice")
	ts.linkProfile(t, "pb", profile.KindTrainer, "Bob Marchal", "acct-bob")
	ts.linkProfile(t, "org-orea", profile.KindOrganization, "ORÉA Formation", "")

	body := langageOral()
	body["organization_id"] = "pb"
	rr := ts.do(t, "POST", "/api/courses", body, alice)
	expectStatus(t, rr, http.StatusBadRequest)
	if msg := decode[errorResponse](t, rr).Error; !strings.Contains(msg, "organization") {
		t.Errorf("error = %q", msg)
	}

	body["organization_id"] = "org-orea"
	rr = ts.do(t, "POST", "/api/courses", body, alice)
	expectStatus(t, rr, http.StatusCreated)
	c := decode[courseResponse](t, rr)
	if c.TrainerID != "pa" || c.OrganizationID != "org-orea" {
		t.Errorf("owner = trainer %q org %q", c.TrainerID, c.OrganizationID)
	}
	expectStatus(t, ts.do(t, "PUT", "/api/courses/"+c.ID, langageOral(), bob), http.StatusForbidden)
	expectStatus(t, ts.do(t, "DELETE", "/api/courses/"+c.ID, nil, bob), http.StatusForbidden)
}

// TestResponsesUseSnakeCase checks the wire names of domain-backed responses.
func TestResponsesUseSnakeCase(t *testing.T) {
	ts := newTestServer(t)
	marie := ts.signIn(t, "acct-marie", "Marie Lefort", account.RoleTrainer)
	ts.linkProfile(t, "prof-marie", profile.KindTrainer, "Marie Lefort", "acct-marie")

	rr := ts.do(t, "POST", "/api/courses", langageOral(), marie)
	expectStatus(t, rr, http.StatusCreated)
	raw := decode[map[string]any](t, rr)
	for _, key := range []string{"id", "title", "trainer_id", "created_at", "sessions", "prices", "affiche_order"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("course response lacks %q: %v", key, raw)
		}
	}
	for _, key := range []string{"ID", "TrainerID", "CreatedAt"} {
		if _, ok := raw[key]; ok {
			t.Errorf("course response has Go field name %q", key)
		}
	}
	sessions, _ := raw["sessions"].([]any)
	if len(sessions) != 1 {
		t.Fatalf("sessions = %v", raw["sessions"])
	}
	parts, _ := sessions[0].(map[string]any)["parts"].([]any)
	if len(parts) != 1 || parts[0].(map[string]any)["start_date"] == nil {
		t.Errorf("session parts = %v", sessions[0])
	}

	dash := decode[map[string]any](t, ts.do(t, "GET", "/api/dashboard", nil, marie))
	if _, ok := dash["candidates"].([]any); !ok {
		t.Errorf("dashboard candidates must encode as a list: %v", dash)
	}
	if p, _ := dash["profile"].(map[string]any); p["name"] != "Marie Lefort" || p["account_id"] != nil {
		t.Errorf("dashboard profile = %v", dash["profile"])
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	trainer := ts.signIn(t, "acct-t", "Jean Dupuis", account.RoleTrainer)
	user := ts.signIn(t, "acct-u", "Lucie", account.RoleUser)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		cookie *http.Cookie
		want   int
	}{
		{"anonymous submit", "POST", "/api/courses", langageOral(), nil, http.StatusUnauthorized},
		{"user cannot submit", "POST", "/api/courses", langageOral(), user, http.StatusForbidden},
		{"no linked profile yet", "POST", "/api/courses", langageOral(), trainer, http.StatusForbidden},
		{"missing title", "POST", "/api/courses", map[string]any{"description": "x", "domain": "y"}, trainer, http.StatusBadRequest},
		{"unknown field", "POST", "/api/register", map[string]any{"email": "a@b.fr", "admin": true}, nil, http.StatusBadRequest},
		{"bad sort", "GET", "/api/catalog?sort=cheapest", nil, nil, http.StatusBadRequest},
		{"bad status", "GET", "/api/admin/moderation?status=draft", nil, ts.signIn(t, "acct-a", "Admin", account.RoleAdmin), http.StatusBadRequest},
		{"admin only", "GET", "/api/admin/notifications", nil, trainer, http.StatusForbidden},
		{"unknown course", "GET", "/api/courses/nope", nil, nil, http.StatusNotFound},
		{"user has no dashboard", "GET", "/api/dashboard", nil, user, http.StatusForbidden},
		{"review needs a rating", "POST", "/api/courses/nope/reviews", map[string]any{"comment": "bien"}, user, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, tt.body, tt.cookie)
			expectStatus(t, rr, tt.want)
			if body := decode[errorResponse](t, rr); body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}

	t.Run("validation fields use json names", func(t *testing.T) {
		rr := ts.do(t, "POST", "/api/courses", map[string]any{"description": "x", "domain": "y"}, trainer)
		body := decode[errorResponse](t, rr)
		if body.Fields["title"] != "required" {
			t.Errorf("fields = %v", body.Fields)
		}
	})
}

func TestLoginLogoutAndSession(t *testing.T) {
	ts := newTestServer(t)
	_, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email:       "orea@example.org",
		Password:    "correct-horse-battery",
		DisplayName: "ORÉA Formation",
		Role:        account.RoleOrganization,
	}, orchestrators.CreateAccountDeps{AccountStore: ts.stores.AccountStore, GenerateID: generateID, Now: timeNow})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	rr := ts.do(t, "POST", "/login", map[string]string{"email": "orea@example.org", "password": "wrong-password-123"}, nil)
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = ts.do(t, "POST", "/login", map[string]string{"email": "orea@example.org", "password": "correct-horse-battery"}, nil)
	expectStatus(t, rr, http.StatusOK)
	cookie := sessionCookie(t, rr)

	sess := decode[sessionResponse](t, ts.do(t, "GET", "/api/session", nil, cookie))
	if !sess.Authenticated || sess.Role != account.RoleOrganization {
		t.Errorf("session = %+v", sess)
	}

	expectStatus(t, ts.do(t, "POST", "/logout", nil, cookie), http.StatusNoContent)
	if sess := decode[sessionResponse](t, ts.do(t, "GET", "/api/session", nil, cookie)); sess.Authenticated {
		t.Error("session survived logout")
	}
}

func TestRegisterAndChangePassword(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, "POST", "/api/register", map[string]string{
		"email":        "jean@example.org",
		"password":     "correct-horse-battery",
		"display_name": "Jean Dupuis",
		"role":         "trainer",
	}, nil)
	expectStatus(t, rr, http.StatusCreated)
	cookie := sessionCookie(t, rr)

	expectStatus(t, ts.do(t, "POST", "/api/register", map[string]string{
		"email": "jean@example.org", "password": "another-long-password", "display_name": "Jean",
	}, nil), http.StatusConflict)

	expectStatus(t, ts.do(t, "POST", "/api/register", map[string]string{
		"email": "boss@example.org", "password": "another-long-password", "display_name": "Boss", "role": "admin",
	}, nil), http.StatusBadRequest)

	expectStatus(t, ts.do(t, "POST", "/api/password", map[string]string{
		"current_password": "not-the-password", "new_password": "a-brand-new-password",
	}, cookie), http.StatusBadRequest)
	expectStatus(t, ts.do(t, "POST", "/api/password", map[string]string{
		"current_password": "correct-horse-battery", "new_password": "a-brand-new-password",
	}, cookie), http.StatusNoContent)
	expectStatus(t, ts.do(t, "POST", "/login", map[string]string{
		"email": "jean@example.org", "password": "a-brand-new-password",
	}, nil), http.StatusOK)
}

func TestReviewsAndFavorites(t *testing.T) {
	ts := newTestServer(t)
	ts.publishedCourse(t, "c-oral", "Prise en charge du langage oral")
	lucie := ts.signIn(t, "acct-lucie", "Lucie", account.RoleUser)

	for _, rating := range []int{3, 5} {
		rr := ts.do(t, "POST", "/api/courses/c-oral/reviews", map[string]any{"rating": rating, "comment": " Très clair "}, lucie)
		expectStatus(t, rr, http.StatusOK)
	}
	detail := decode[courseDetailResponse](t, ts.do(t, "GET", "/api/courses/c-oral", nil, lucie))
	if len(detail.Reviews) != 1 || detail.Reviews[0].Rating != 5 || detail.Rating.Average != 5 {
		t.Errorf("reviews = %+v rating = %+v", detail.Reviews, detail.Rating)
	}

	res := decode[catalogResponse](t, ts.do(t, "GET", "/api/catalog?sort=rating", nil, nil))
	if len(res.Entries) != 1 || res.Entries[0].Rating.Count != 1 {
		t.Errorf("catalog rating not refreshed: %+v", res.Entries)
	}

	toggle := func() bool {
		rr := ts.do(t, "POST", "/api/courses/c-oral/favorite", nil, lucie)
		expectStatus(t, rr, http.StatusOK)
		return decode[favoriteResponse](t, rr).Favorite
	}
	if !toggle() {
		t.Fatal("first toggle should save")
	}
	favs := decode[[]favoriteCourseResponse](t, ts.do(t, "GET", "/api/favorites", nil, lucie))
	if len(favs) != 1 || favs[0].Course.ID != "c-oral" || !favs[0].Available {
		t.Errorf("favorites = %+v", favs)
	}
	if toggle() {
		t.Error("second toggle should unsave")
	}
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	org := ts.signIn(t, "acct-orea", "ORÉA Formation", account.RoleOrganization)
	ts.linkProfile(t, "prof-orea", profile.KindOrganization, "ORÉA Formation", "acct-orea")
	admin := ts.signIn(t, "acct-admin", "Administration", account.RoleAdmin)
	trainer := ts.signIn(t, "acct-t", "Jean Dupuis", account.RoleTrainer)

	webinar := map[string]any{
		"kind":      "webinar",
		"title":     "Dysphagie : actualités",
		"starts_at": "2026-04-02T18:00:00Z",
		"url":       "https://visio.example.org/dysphagie",
	}
	expectStatus(t, ts.do(t, "POST", "/api/events", webinar, trainer), http.StatusForbidden)

	rr := ts.do(t, "POST", "/api/events", webinar, org)
	expectStatus(t, rr, http.StatusCreated)
	e := decode[eventResponse](t, rr)
	if e.Status != moderation.StatusPending || e.OrganizationID != "prof-orea" {
		t.Fatalf("event = %+v", e)
	}

	if list := decode[[]eventResponse](t, ts.do(t, "GET", "/api/events", nil, nil)); len(list) != 0 {
		t.Errorf("pending event listed: %+v", list)
	}
	expectStatus(t, ts.do(t, "GET", "/api/events?status=pending", nil, org), http.StatusForbidden)
	if list := decode[[]eventResponse](t, ts.do(t, "GET", "/api/events?status=pending", nil, admin)); len(list) != 1 {
		t.Errorf("admin pending list = %d, want 1", len(list))
	}

	rr = ts.do(t, "POST", "/api/admin/events/"+e.ID+"/status", map[string]string{"status": "archived"}, admin)
	expectStatus(t, rr, http.StatusBadRequest)
	rr = ts.do(t, "POST", "/api/admin/events/"+e.ID+"/status", map[string]string{"status": "published"}, admin)
	expectStatus(t, rr, http.StatusOK)

	list := decode[[]eventResponse](t, ts.do(t, "GET", "/api/events?kind=webinar&since=2026-03-01", nil, nil))
	if len(list) != 1 || list[0].ID != e.ID {
		t.Errorf("webinars = %+v", list)
	}
	expectStatus(t, ts.do(t, "GET", "/api/events?kind=seminar", nil, nil), http.StatusBadRequest)
	expectStatus(t, ts.do(t, "GET", "/api/events?since=mars", nil, nil), http.StatusBadRequest)

	webinar["title"] = "Dysphagie : nouveautés 2026"
	rr = ts.do(t, "PUT", "/api/events/"+e.ID, webinar, org)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[eventResponse](t, rr); got.Status != moderation.StatusPending {
		t.Errorf("status after edit = %s", got.Status)
	}
	expectStatus(t, ts.do(t, "DELETE", "/api/events/"+e.ID, nil, org), http.StatusNoContent)
	expectStatus(t, ts.do(t, "DELETE", "/api/events/"+e.ID, nil, admin), http.StatusNotFound)
}

// TestDashboardMerge covers the manual merge of a differently named orphan.
func TestDashboardMerge(t *testing.T) {
	ts := newTestServer(t)
	jean := ts.signIn(t, "acct-jean", "Jean Dupuis", account.RoleTrainer)
	orphan := profile.Profile{ID: "orphan-jd", Kind: profile.KindTrainer, Name: "J. Dupuis", CreatedAt: testNow}
	if err := ts.stores.ProfileStore.Save(context.Background(), orphan); err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	for i := range 2 {
		c := course.Course{
			ID: fmt.Sprintf("c-%d", i), Title: "Bégaiement", Description: "d", Domain: "Fluence",
			Status: moderation.StatusPublished, TrainerID: "orphan-jd", CreatedAt: testNow,
		}
		if err := ts.stores.CourseStore.Save(context.Background(), c); err != nil {
			t.Fatalf("save course: %v", err)
		}
	}

	dash := decode[dashboardResponse](t, ts.do(t, "GET", "/api/dashboard", nil, jean))
	if len(dash.Candidates) != 1 || dash.Candidates[0].CourseCount != 2 {
		t.Fatalf("candidates = %+v", dash.Candidates)
	}

	rr := ts.do(t, "POST", "/api/dashboard/merge", map[string]string{"orphan_id": "orphan-jd"}, jean)
	expectStatus(t, rr, http.StatusOK)
	if res := decode[mergeResponse](t, rr); res.MovedCourses != 2 {
		t.Errorf("moved = %d, want 2", res.MovedCourses)
	}

	dash = decode[dashboardResponse](t, ts.do(t, "GET", "/api/dashboard", nil, jean))
	if len(dash.Courses) != 2 || len(dash.Candidates) != 0 {
		t.Errorf("after merge: courses = %d, candidates = %d", len(dash.Courses), len(dash.Candidates))
	}
	expectStatus(t, ts.do(t, "POST", "/api/dashboard/merge", map[string]string{"orphan_id": "orphan-jd"}, jean), http.StatusNotFound)
}

func TestAdminOutbox(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.signIn(t, "acct-admin", "Administration", account.RoleAdmin)
	payload, _ := json.Marshal(email.CourseSubmission{CourseID: "c1", Title: "Bégaiement", OwnerName: "Jean Dupuis"})
	entry := outbox.Entry{
		ID:          "ob-1",
		ActionType:  outbox.ActionTypeAdminEmail,
		Payload:     string(payload),
		Status:      outbox.StatusFailed,
		Attempts:    5,
		MaxAttempts: 5,
		CreatedAt:   testNow,
	}
	if err := ts.stores.OutboxStore.Save(context.Background(), entry); err != nil {
		t.Fatalf("save entry: %v", err)
	}

	list := decode[[]outboxEntryResponse](t, ts.do(t, "GET", "/api/admin/outbox", nil, admin))
	if len(list) != 1 || list[0].ID != "ob-1" {
		t.Fatalf("failed entries = %+v", list)
	}

	expectStatus(t, ts.do(t, "POST", "/api/admin/outbox/ob-1/retry", nil, admin), http.StatusOK)
	got, err := ts.stores.OutboxStore.GetByID(context.Background(), "ob-1")
	if err != nil || got.Status != outbox.StatusDone {
		t.Fatalf("after retry: %+v, %v", got, err)
	}
	expectStatus(t, ts.do(t, "POST", "/api/admin/outbox/ob-1/retry", nil, admin), http.StatusConflict)
	expectStatus(t, ts.do(t, "POST", "/api/admin/outbox/ob-1/abandon", nil, admin), http.StatusConflict)
	expectStatus(t, ts.do(t, "POST", "/api/admin/outbox/missing/abandon", nil, admin), http.StatusNotFound)
}

func TestOperationsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.signIn(t, "acct-admin", "Administration", account.RoleAdmin)

	rr := ts.do(t, "GET", "/healthz", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	if h := decode[healthResponse](t, rr); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}

	ts.do(t, "GET", "/api/catalog", nil, nil)
	rr = ts.do(t, "GET", "/metrics", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "formations_catalog_cache_loads_total 1") {
		t.Errorf("metrics missing catalog load counter")
	}

	snap := decode[perf.Snapshot](t, ts.do(t, "GET", "/api/admin/perf?minutes=5", nil, admin))
	if snap.Requests == 0 {
		t.Errorf("perf snapshot = %+v", snap)
	}
	if rr := ts.do(t, "GET", "/healthz", nil, nil); rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
}

func multipartBody(t *testing.T, path string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("path", path); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", "photo")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// TestUpload_ThroughCSRF uploads a photo with the token handed out by /api/session.
func TestUpload_ThroughCSRF(t *testing.T) {
	ts := newTestServer(t)
	marie := ts.signIn(t, "acct-marie", "Marie Lefort", account.RoleTrainer)

	req := httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(marie)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)
	token := rr.Header().Get("X-CSRF-Token")
	if token == "" {
		t.Fatal("no CSRF token")
	}
	csrfCookies := rr.Result().Cookies()

	send := func(withToken bool, path string, data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, path, data)
		req := httptest.NewRequest("POST", "/api/uploads", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(marie)
		for _, c := range csrfCookies {
			req.AddCookie(c)
		}
		if withToken {
			req.Header.Set("X-CSRF-Token", token)
		}
		rr := httptest.NewRecorder()
		ts.handler.ServeHTTP(rr, req)
		return rr
	}

	expectStatus(t, send(false, "photo.png", pngBytes()), http.StatusForbidden)

	rr = send(true, "photo.png", pngBytes())
	expectStatus(t, rr, http.StatusCreated)
	url := decode[uploadResponse](t, rr).URL
	if url != "/uploads/accounts/acct-marie/photo.png" {
		t.Errorf("url = %q", url)
	}
	expectStatus(t, ts.do(t, "GET", url, nil, nil), http.StatusOK)

	tests := []struct {
		name string
		path string
		data []byte
	}{
		{"traversal", "../../etc/passwd", pngBytes()},
		{"absolute", "/photo.png", pngBytes()},
		{"not an image", "cv.pdf", []byte("%PDF-1.7\n")},
		{"empty", "photo.png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, send(true, tt.path, tt.data), http.StatusBadRequest)
		})
	}
}
