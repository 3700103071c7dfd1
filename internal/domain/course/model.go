package course

import (
	"errors"
	"strings"
	"time"

	"formations/internal/domain/moderation"
)

// Modalities
const (
	ModalityInPerson = "presentiel"
	ModalityRemote   = "distanciel"
	ModalityHybrid   = "mixte"
)

// ValidModalities contains all valid modality values.
var ValidModalities = []string{ModalityInPerson, ModalityRemote, ModalityHybrid}

// Max length constants for user-editable fields.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 20000
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("course title cannot be empty")
	ErrTitleTooLong     = errors.New("course title cannot exceed 200 characters")
	ErrEmptyDescription = errors.New("course description cannot be empty")
	ErrEmptyDomain      = errors.New("course domain cannot be empty")
	ErrInvalidModality  = errors.New("modality must be one of: presentiel, distanciel, mixte")
	ErrSessionNoDate    = errors.New("each session needs at least one dated part")
	ErrNegativePrice    = errors.New("price cannot be negative")
)

// PriceVariant is one tariff of a course (e.g. "Libéral", "Salarié").
type PriceVariant struct {
	Label       string
	AmountCents int
}

// SessionPart is one dated block of a session, with its own place and modality.
type SessionPart struct {
	Modality  string
	Place     string
	City      string
	StartDate time.Time
	EndDate   time.Time
	VisioURL  string
}

// Session is one run of a course, made of one or more parts.
type Session struct {
	ID       string
	CourseID string
	Position int
	Parts    []SessionPart
}

// HasDate returns true if at least one part carries a concrete start date.
// INVARIANT: Session fields are not mutated
func (s *Session) HasDate() bool {
	for _, p := range s.Parts {
		if !p.StartDate.IsZero() {
			return true
		}
	}
	return false
}

// FirstDate returns the earliest start date across parts (zero if none).
func (s *Session) FirstDate() time.Time {
	var first time.Time
	for _, p := range s.Parts {
		if p.StartDate.IsZero() {
			continue
		}
		if first.IsZero() || p.StartDate.Before(first) {
			first = p.StartDate
		}
	}
	return first
}

// Course is a continuing-education offer ("formation").
// A course with no trainer and no organization is independent.
type Course struct {
	ID             string
	Title          string
	Subtitle       string
	Description    string // Markdown
	Domain         string
	Modality       string
	Prices         []PriceVariant
	Funding        []string // payment-coverage schemes (DPC, FIF-PL, ...)
	Keywords       []string
	Populations    []string
	Sessions       []Session
	Status         moderation.Status
	AfficheOrder   *int // manual feature ordering, nil when unset
	TrainerID      string
	OrganizationID string
	PhotoURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Edit carries the content fields an owner may change.
type Edit struct {
	Title       string
	Subtitle    string
	Description string
	Domain      string
	Modality    string
	Prices      []PriceVariant
	Funding     []string
	Keywords    []string
	Populations []string
	Sessions    []Session
	PhotoURL    string
}

// Validate checks if the Course has valid data.
// PRE: Course struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if len(c.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if len(c.Description) > MaxDescriptionLength {
		return errors.New("course description cannot exceed 20000 characters")
	}
	if strings.TrimSpace(c.Domain) == "" {
		return ErrEmptyDomain
	}
	if c.Modality != "" && !isValidModality(c.Modality) {
		return ErrInvalidModality
	}
	for _, p := range c.Prices {
		if p.AmountCents < 0 {
			return ErrNegativePrice
		}
	}
	for i := range c.Sessions {
		if !c.Sessions[i].HasDate() {
			return ErrSessionNoDate
		}
		for _, part := range c.Sessions[i].Parts {
			if part.Modality != "" && !isValidModality(part.Modality) {
				return ErrInvalidModality
			}
		}
	}
	if !c.Status.Valid() {
		return moderation.ErrInvalidStatus
	}
	return nil
}

// IsIndependent returns true if neither a trainer nor an organization owns the course.
// INVARIANT: Course fields are not mutated
func (c *Course) IsIndependent() bool {
	return c.TrainerID == "" && c.OrganizationID == ""
}

// IsOwnedBy returns true if the given profile ID owns the course.
func (c *Course) IsOwnedBy(profileID string) bool {
	return profileID != "" && (c.TrainerID == profileID || c.OrganizationID == profileID)
}

// ApplyOwnerEdit replaces the content fields and sends the course back to moderation.
// PRE: edit comes from the owning trainer or organization
// POST: Content fields replaced, Status is pending, UpdatedAt set
func (c *Course) ApplyOwnerEdit(edit Edit, now time.Time) {
	c.Title = strings.TrimSpace(edit.Title)
	c.Subtitle = strings.TrimSpace(edit.Subtitle)
	c.Description = edit.Description
	c.Domain = strings.TrimSpace(edit.Domain)
	c.Modality = edit.Modality
	c.Prices = edit.Prices
	c.Funding = edit.Funding
	c.Keywords = edit.Keywords
	c.Populations = edit.Populations
	c.Sessions = edit.Sessions
	if edit.PhotoURL != "" {
		c.PhotoURL = edit.PhotoURL
	}
	// Unconditional: an edit is never shown under a previous approval.
	c.Status = moderation.StatusPending
	c.UpdatedAt = now
}

// SetStatus moves the course to a new status on behalf of actor.
// PRE: to is a valid status
// POST: Status updated, or error with the course unchanged
func (c *Course) SetStatus(to moderation.Status, actor moderation.Actor, now time.Time) error {
	next, err := moderation.Transition(c.Status, to, actor)
	if err != nil {
		return err
	}
	c.Status = next
	c.UpdatedAt = now
	return nil
}

// LowestPriceCents returns the cheapest price variant and whether any price exists.
func (c *Course) LowestPriceCents() (int, bool) {
	if len(c.Prices) == 0 {
		return 0, false
	}
	lowest := c.Prices[0].AmountCents
	for _, p := range c.Prices[1:] {
		if p.AmountCents < lowest {
			lowest = p.AmountCents
		}
	}
	return lowest, true
}

// Places returns every session part place and city, in session order.
func (c *Course) Places() []string {
	var out []string
	for _, s := range c.Sessions {
		for _, p := range s.Parts {
			if p.Place != "" {
				out = append(out, p.Place)
			}
			if p.City != "" {
				out = append(out, p.City)
			}
		}
	}
	return out
}

func isValidModality(m string) bool {
	for _, v := range ValidModalities {
		if v == m {
			return true
		}
	}
	return false
}
