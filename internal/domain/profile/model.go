package profile

import (
	"errors"
	"strings"
	"time"
)

// Kind distinguishes trainers from organizations.
type Kind string

// Profile kinds
const (
	KindTrainer      Kind = "trainer"
	KindOrganization Kind = "organization"
)

// Gender tags, used only to pick the grammatical title of a trainer.
const (
	GenderMale   = "m"
	GenderFemale = "f"
)

// Domain errors
var (
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrInvalidKind   = errors.New("kind must be one of: trainer, organization")
	ErrInvalidGender = errors.New("gender must be m, f or empty")
	ErrNotOrphan     = errors.New("profile is linked to an account")
	ErrKindMismatch  = errors.New("profiles are not of the same kind")
)

// Profile is a trainer ("formateur") or an organization ("organisme").
// An empty AccountID marks an unlinked (orphan) record.
type Profile struct {
	ID             string
	Kind           Kind
	Name           string
	Bio            string
	PhotoURL       string // trainer photo or organization logo
	Gender         string
	AccountID      string
	OrganizationID string // trainer affiliation
	CreatedAt      time.Time
}

// ParseKind converts raw input into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindTrainer, KindOrganization:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Kind != KindTrainer && p.Kind != KindOrganization {
		return ErrInvalidKind
	}
	if p.Gender != "" && p.Gender != GenderMale && p.Gender != GenderFemale {
		return ErrInvalidGender
	}
	return nil
}

// IsLinked returns true if an account owns this profile.
// INVARIANT: Profile fields are not mutated
func (p *Profile) IsLinked() bool {
	return p.AccountID != ""
}

// MatchesName reports whether name equals the profile name, trimmed and case-insensitive.
func (p *Profile) MatchesName(name string) bool {
	n := NormalizeName(name)
	return n != "" && NormalizeName(p.Name) == n
}

// Claim links the orphan profile to accountID.
// PRE: profile is unlinked
// POST: AccountID is set
func (p *Profile) Claim(accountID string) error {
	if p.IsLinked() {
		return ErrNotOrphan
	}
	p.AccountID = accountID
	return nil
}

// Title returns the grammatical title shown next to a trainer name.
func (p *Profile) Title() string {
	if p.Kind == KindOrganization {
		return "Organisme"
	}
	if p.Gender == GenderFemale {
		return "Formatrice"
	}
	return "Formateur"
}

// NormalizeName trims surrounding spaces and folds case.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
