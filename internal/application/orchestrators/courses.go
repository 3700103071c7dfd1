package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"formations/internal/adapters/email"
	"formations/internal/adapters/metrics"
	"formations/internal/adapters/storage"
	"formations/internal/domain/course"
	"formations/internal/domain/moderation"
	"formations/internal/domain/notification"
	"formations/internal/domain/outbox"
	"formations/internal/domain/profile"
)

// CourseStoreForOrchestrator defines the store interface needed by course workflows.
type CourseStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (course.Course, error)
	Save(ctx context.Context, c course.Course) error
	Delete(ctx context.Context, id string) error
}

// NotificationSaver persists admin notifications.
type NotificationSaver interface {
	Save(ctx context.Context, n notification.Notification) error
}

// OutboxSaver enqueues best-effort outbound actions.
type OutboxSaver interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// ErrInvalidOrganization is returned when a trainer names a profile that is not an organization.
var ErrInvalidOrganization = errors.New("organization_id must name an existing organization")

// --- Submit Course ---

// SubmitCourseInput carries input for the submit course orchestrator.
type SubmitCourseInput struct {
	Actor   Actor
	Content course.Edit
	// OrganizationID optionally affiliates a trainer's course with an organization.
	OrganizationID string
}

// SubmitCourseDeps holds dependencies for SubmitCourse.
type SubmitCourseDeps struct {
	CourseStore       CourseStoreForOrchestrator
	ProfileStore      ProfileResolver
	NotificationStore NotificationSaver
	OutboxStore       OutboxSaver
	Metrics           *metrics.Metrics
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteSubmitCourse stores a new course awaiting moderation and tells the admin.
// Trainers and organizations submit under their linked profile; an admin submission is independent.
// PRE: Actor is authenticated with a trainer, organization or admin role
// POST: Course saved with status pending; an admin notification and e-mail are attempted
// INVARIANT: Notification or e-mail failure never fails the submission
func ExecuteSubmitCourse(ctx context.Context, input SubmitCourseInput, deps SubmitCourseDeps) (course.Course, error) {
	if !input.Actor.Authenticated() {
		return course.Course{}, ErrUnauthenticated
	}

	now := deps.Now()
	c := course.Course{ID: deps.GenerateID(), CreatedAt: now}
	ownerName := input.Actor.DisplayName

	if !input.Actor.IsAdmin() {
		owner, err := ownerProfile(ctx, deps.ProfileStore, input.Actor)
		if err != nil {
			return course.Course{}, err
		}
		ownerName = owner.Name
		if owner.Kind == profile.KindOrganization {
			c.OrganizationID = owner.ID
		} else {
			c.TrainerID = owner.ID
			orgID, err := affiliation(ctx, deps.ProfileStore, input.OrganizationID)
			if err != nil {
				return course.Course{}, err
			}
			c.OrganizationID = orgID
		}
	}

	c.ApplyOwnerEdit(input.Content, now)
	c.UpdatedAt = time.Time{}

	if err := c.Validate(); err != nil {
		return course.Course{}, err
	}
	if err := deps.CourseStore.Save(ctx, c); err != nil {
		return course.Course{}, err
	}

	deps.Metrics.StatusTransition("course", "none", string(c.Status))
	slog.Info("course_event", "event", "course_submitted", "course_id", c.ID, "title", c.Title, "by", input.Actor.AccountID)

	notifyAdmin(ctx, adminNotice{
		message:       fmt.Sprintf("Nouvelle formation à modérer : %s (%s)", c.Title, ownerLabel(ownerName)),
		course:        c,
		ownerName:     ownerName,
		notifications: deps.NotificationStore,
		outbox:        deps.OutboxStore,
		generateID:    deps.GenerateID,
		now:           now,
	})
	return c, nil
}

// affiliation checks that id, when set, names an organization profile.
// The organization co-owns the course, so an arbitrary profile ID would hand out edit rights.
func affiliation(ctx context.Context, profiles ProfileResolver, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	p, err := profiles.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidOrganization
	}
	if err != nil {
		return "", fmt.Errorf("lookup organization: %w", err)
	}
	if p.Kind != profile.KindOrganization {
		return "", ErrInvalidOrganization
	}
	return p.ID, nil
}

// --- Edit Course ---

// EditCourseInput carries input for the edit course orchestrator.
type EditCourseInput struct {
	Actor    Actor
	CourseID string
	Content  course.Edit
}

// EditCourseDeps holds dependencies for EditCourse.
type EditCourseDeps struct {
	CourseStore       CourseStoreForOrchestrator
	ProfileStore      ProfileLookup
	NotificationStore NotificationSaver
	OutboxStore       OutboxSaver
	Catalog           CatalogInvalidator
	Metrics           *metrics.Metrics
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteEditCourse applies an owner's content edit and sends the course back to moderation.
// PRE: Actor owns the course through their linked profile
// POST: Content replaced, status pending whatever it was; catalog invalidated if it left published
func ExecuteEditCourse(ctx context.Context, input EditCourseInput, deps EditCourseDeps) (course.Course, error) {
	if !input.Actor.Authenticated() {
		return course.Course{}, ErrUnauthenticated
	}
	owner, err := ownerProfile(ctx, deps.ProfileStore, input.Actor)
	if err != nil {
		return course.Course{}, err
	}

	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return course.Course{}, err
	}
	if !c.IsOwnedBy(owner.ID) {
		return course.Course{}, ErrForbidden
	}

	previous := c.Status
	now := deps.Now()
	c.ApplyOwnerEdit(input.Content, now)
	if err := c.Validate(); err != nil {
		return course.Course{}, err
	}
	if err := deps.CourseStore.Save(ctx, c); err != nil {
		return course.Course{}, err
	}

	if moderation.TouchesCatalog(previous, c.Status) {
		invalidate(deps.Catalog)
	}
	deps.Metrics.StatusTransition("course", string(previous), string(c.Status))
	slog.Info("course_event", "event", "course_edited", "course_id", c.ID, "previous_status", string(previous), "by", input.Actor.AccountID)

	notifyAdmin(ctx, adminNotice{
		message:       fmt.Sprintf("Formation modifiée, à modérer de nouveau : %s (%s)", c.Title, owner.Name),
		course:        c,
		ownerName:     owner.Name,
		notifications: deps.NotificationStore,
		outbox:        deps.OutboxStore,
		generateID:    deps.GenerateID,
		now:           now,
	})
	return c, nil
}

// --- Set Course Status ---

// SetCourseStatusInput carries input for the set course status orchestrator.
type SetCourseStatusInput struct {
	Actor    Actor
	CourseID string
	Status   moderation.Status
}

// SetCourseStatusDeps holds dependencies for SetCourseStatus.
type SetCourseStatusDeps struct {
	CourseStore CourseStoreForOrchestrator
	Catalog     CatalogInvalidator
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// ExecuteSetCourseStatus moves a course to any status on behalf of the admin.
// PRE: Actor is admin
// POST: Status saved and catalog invalidated when published is involved.
// A datastore error is returned as is and the stored course keeps its previous status; nothing is retried.
func ExecuteSetCourseStatus(ctx context.Context, input SetCourseStatusInput, deps SetCourseStatusDeps) (course.Course, error) {
	if !input.Actor.IsAdmin() {
		return course.Course{}, ErrForbidden
	}

	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return course.Course{}, err
	}

	previous := c.Status
	if err := c.SetStatus(input.Status, moderation.ActorAdmin, deps.Now()); err != nil {
		return course.Course{}, err
	}
	if err := deps.CourseStore.Save(ctx, c); err != nil {
		slog.Error("course_event", "event", "course_status_failed", "course_id", c.ID, "to", string(input.Status), "error", err)
		return course.Course{}, err
	}

	if moderation.TouchesCatalog(previous, c.Status) {
		invalidate(deps.Catalog)
	}
	deps.Metrics.StatusTransition("course", string(previous), string(c.Status))
	slog.Info("course_event", "event", "course_status_changed", "course_id", c.ID, "from", string(previous), "to", string(c.Status))
	return c, nil
}

// --- Set Affiche Order ---

// ErrNegativeAfficheOrder rejects a manual position below zero.
var ErrNegativeAfficheOrder = errors.New("affiche order cannot be negative")

// SetAfficheOrderInput carries input for the affiche order orchestrator.
// A nil Order removes the course from the featured ordering.
type SetAfficheOrderInput struct {
	Actor    Actor
	CourseID string
	Order    *int
}

// ExecuteSetAfficheOrder sets the manual catalog position of a course.
// PRE: Actor is admin
// POST: AfficheOrder saved; status untouched; catalog invalidated when the course is published
func ExecuteSetAfficheOrder(ctx context.Context, input SetAfficheOrderInput, deps SetCourseStatusDeps) (course.Course, error) {
	if !input.Actor.IsAdmin() {
		return course.Course{}, ErrForbidden
	}
	if input.Order != nil && *input.Order < 0 {
		return course.Course{}, ErrNegativeAfficheOrder
	}

	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return course.Course{}, err
	}
	c.AfficheOrder = input.Order
	c.UpdatedAt = deps.Now()
	if err := deps.CourseStore.Save(ctx, c); err != nil {
		return course.Course{}, err
	}
	if c.Status.IsPublished() {
		invalidate(deps.Catalog)
	}
	slog.Info("course_event", "event", "course_affiche_order_set", "course_id", c.ID)
	return c, nil
}

// --- Delete Course ---

// DeleteCourseInput carries input for the delete course orchestrator.
type DeleteCourseInput struct {
	Actor    Actor
	CourseID string
}

// DeleteCourseDeps holds dependencies for DeleteCourse.
type DeleteCourseDeps struct {
	CourseStore  CourseStoreForOrchestrator
	ProfileStore ProfileLookup
	Catalog      CatalogInvalidator
}

// ExecuteDeleteCourse removes a course with its sessions, reviews and favorites.
// PRE: Actor is admin or owns the course
// POST: Course gone; catalog invalidated if it was published
func ExecuteDeleteCourse(ctx context.Context, input DeleteCourseInput, deps DeleteCourseDeps) error {
	if !input.Actor.Authenticated() {
		return ErrUnauthenticated
	}
	c, err := deps.CourseStore.GetByID(ctx, input.CourseID)
	if err != nil {
		return err
	}
	if !input.Actor.IsAdmin() {
		owner, err := ownerProfile(ctx, deps.ProfileStore, input.Actor)
		if err != nil {
			return err
		}
		if !c.IsOwnedBy(owner.ID) {
			return ErrForbidden
		}
	}

	if err := deps.CourseStore.Delete(ctx, c.ID); err != nil {
		return err
	}
	if c.Status.IsPublished() {
		invalidate(deps.Catalog)
	}
	slog.Info("course_event", "event", "course_deleted", "course_id", c.ID, "by", input.Actor.AccountID)
	return nil
}

// --- Admin notification side effects ---

type adminNotice struct {
	message       string
	course        course.Course
	ownerName     string
	notifications NotificationSaver
	outbox        OutboxSaver
	generateID    func() string
	now           time.Time
}

// notifyAdmin records the admin notification and enqueues the admin e-mail.
// Failures are logged and swallowed.
func notifyAdmin(ctx context.Context, n adminNotice) {
	note := notification.Notification{
		ID:        n.generateID(),
		Message:   n.message,
		CourseID:  n.course.ID,
		CreatedAt: n.now,
	}
	if err := n.notifications.Save(ctx, note); err != nil {
		slog.Warn("course_event", "event", "admin_notification_failed", "course_id", n.course.ID, "error", err)
	}

	if n.outbox == nil {
		return
	}
	payload, err := json.Marshal(email.CourseSubmission{
		CourseID:    n.course.ID,
		OwnerName:   n.ownerName,
		Title:       n.course.Title,
		Domain:      n.course.Domain,
		Price:       formatLowestPrice(n.course),
		Status:      string(n.course.Status),
		Description: n.course.Description,
	})
	if err != nil {
		slog.Warn("course_event", "event", "admin_email_encode_failed", "course_id", n.course.ID, "error", err)
		return
	}
	entry := outbox.Entry{
		ID:          n.generateID(),
		ActionType:  outbox.ActionTypeAdminEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: outbox.DefaultMaxAttempts,
		CreatedAt:   n.now,
	}
	if err := n.outbox.Save(ctx, entry); err != nil {
		slog.Warn("course_event", "event", "admin_email_enqueue_failed", "course_id", n.course.ID, "error", err)
	}
}

// formatLowestPrice renders the cheapest variant the French way, e.g. "450,00 €".
func formatLowestPrice(c course.Course) string {
	cents, ok := c.LowestPriceCents()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

func ownerLabel(name string) string {
	if name == "" {
		return "formation indépendante"
	}
	return name
}
