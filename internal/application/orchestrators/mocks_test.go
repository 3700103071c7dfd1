package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"formations/internal/adapters/email"
	"formations/internal/adapters/storage"
	"formations/internal/domain/account"
	"formations/internal/domain/course"
	"formations/internal/domain/event"
	"formations/internal/domain/favorite"
	"formations/internal/domain/notification"
	"formations/internal/domain/outbox"
	"formations/internal/domain/profile"
	"formations/internal/domain/review"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seqIDs returns a generator of "id-1", "id-2", ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// --- courses ---

type mockCourseStore struct {
	courses map[string]course.Course
	saveErr error
}

func newMockCourseStore(courses ...course.Course) *mockCourseStore {
	m := &mockCourseStore{courses: make(map[string]course.Course)}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

func (m *mockCourseStore) GetByID(_ context.Context, id string) (course.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return course.Course{}, fmt.Errorf("course %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (m *mockCourseStore) Save(_ context.Context, c course.Course) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.courses[c.ID] = c
	return nil
}

func (m *mockCourseStore) Delete(_ context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseStore) ownedBy(profileID string) int {
	n := 0
	for _, c := range m.courses {
		if c.IsOwnedBy(profileID) {
			n++
		}
	}
	return n
}

// --- profiles ---

// mockProfileStore keeps courses in step on merge, like the SQL store.
type mockProfileStore struct {
	profiles   map[string]profile.Profile
	courses    *mockCourseStore
	listErr    error
	lookupErr  error
	getErr     error
	saveErr    error
	mergeCalls int
}

func newMockProfileStore(courses *mockCourseStore, profiles ...profile.Profile) *mockProfileStore {
	m := &mockProfileStore{profiles: make(map[string]profile.Profile), courses: courses}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfileStore) GetByID(_ context.Context, id string) (profile.Profile, error) {
	if m.getErr != nil {
		return profile.Profile{}, m.getErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (m *mockProfileStore) GetByAccount(_ context.Context, kind profile.Kind, accountID string) (profile.Profile, error) {
	if m.lookupErr != nil {
		return profile.Profile{}, m.lookupErr
	}
	for _, p := range m.profiles {
		if p.Kind == kind && p.AccountID == accountID {
			return p, nil
		}
	}
	return profile.Profile{}, storage.ErrNotFound
}

func (m *mockProfileStore) Save(_ context.Context, p profile.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileStore) ListUnlinked(_ context.Context, kind profile.Kind) ([]profile.Profile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []profile.Profile
	for _, p := range m.profiles {
		if p.Kind == kind && !p.IsLinked() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockProfileStore) MergeInto(_ context.Context, orphanID, targetID string) (int, error) {
	m.mergeCalls++
	orphan, ok := m.profiles[orphanID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if orphan.IsLinked() {
		return 0, profile.ErrNotOrphan
	}
	moved := 0
	for id, c := range m.courses.courses {
		switch orphanID {
		case c.TrainerID:
			c.TrainerID = targetID
		case c.OrganizationID:
			c.OrganizationID = targetID
		default:
			continue
		}
		m.courses.courses[id] = c
		moved++
	}
	delete(m.profiles, orphanID)
	return moved, nil
}

// --- notifications ---

type mockNotificationStore struct {
	items   map[string]notification.Notification
	saveErr error
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{items: make(map[string]notification.Notification)}
}

func (m *mockNotificationStore) GetByID(_ context.Context, id string) (notification.Notification, error) {
	n, ok := m.items[id]
	if !ok {
		return notification.Notification{}, storage.ErrNotFound
	}
	return n, nil
}

func (m *mockNotificationStore) Save(_ context.Context, n notification.Notification) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[n.ID] = n
	return nil
}

// --- outbox ---

type mockOutboxStore struct {
	entries map[string]outbox.Entry
	saveErr error
}

func newMockOutboxStore(entries ...outbox.Entry) *mockOutboxStore {
	m := &mockOutboxStore{entries: make(map[string]outbox.Entry)}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, storage.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusFailed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

// --- catalog ---

type mockCatalog struct {
	invalidations int
}

func (m *mockCatalog) Invalidate() { m.invalidations++ }

// --- events ---

type mockEventStore struct {
	events  map[string]event.Event
	saveErr error
}

func newMockEventStore(events ...event.Event) *mockEventStore {
	m := &mockEventStore{events: make(map[string]event.Event)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return event.Event{}, storage.ErrNotFound
	}
	return e, nil
}

func (m *mockEventStore) Save(_ context.Context, e event.Event) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockEventStore) Delete(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}

// --- reviews & favorites ---

type mockReviewStore struct {
	reviews map[string]review.Review // keyed by account/course
}

func newMockReviewStore() *mockReviewStore {
	return &mockReviewStore{reviews: make(map[string]review.Review)}
}

func (m *mockReviewStore) Upsert(_ context.Context, r review.Review) (review.Review, error) {
	key := r.AccountID + "/" + r.CourseID
	if existing, ok := m.reviews[key]; ok {
		existing.Rating = r.Rating
		existing.Comment = r.Comment
		existing.UpdatedAt = r.UpdatedAt
		m.reviews[key] = existing
		return existing, nil
	}
	m.reviews[key] = r
	return r, nil
}

type mockFavoriteStore struct {
	favs map[string]favorite.Favorite
}

func newMockFavoriteStore() *mockFavoriteStore {
	return &mockFavoriteStore{favs: make(map[string]favorite.Favorite)}
}

func (m *mockFavoriteStore) Exists(_ context.Context, accountID, courseID string) (bool, error) {
	_, ok := m.favs[accountID+"/"+courseID]
	return ok, nil
}

func (m *mockFavoriteStore) Add(_ context.Context, f favorite.Favorite) error {
	m.favs[f.AccountID+"/"+f.CourseID] = f
	return nil
}

func (m *mockFavoriteStore) Remove(_ context.Context, accountID, courseID string) error {
	delete(m.favs, accountID+"/"+courseID)
	return nil
}

// --- accounts ---

type mockAccountStore struct {
	accounts map[string]account.Account // keyed by lower-case email
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]account.Account)}
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[strings.ToLower(email)]
	if !ok {
		return account.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, storage.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[strings.ToLower(a.Email)] = a
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// --- e-mail ---

type mockSender struct {
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent)), SentAt: fixedTime}, nil
}
