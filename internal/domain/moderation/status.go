package moderation

import (
	"errors"
	"strings"
)

// Status is the publication lifecycle state of a submitted course or event.
type Status string

// Publication statuses
const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

// Actor identifies who requests a status change.
type Actor int

// Actors allowed to move a record between statuses.
const (
	ActorSystem Actor = iota // record creation
	ActorOwner               // owning trainer or organization editing content
	ActorAdmin               // moderation account
)

// Domain errors
var (
	ErrInvalidStatus     = errors.New("status must be one of: pending, published, rejected, archived")
	ErrInvalidTransition = errors.New("status transition not allowed for this actor")
)

// AllStatuses lists every course status, in display order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusPublished, StatusRejected, StatusArchived}
}

// EventStatuses lists the statuses available to congresses and webinars.
func EventStatuses() []Status {
	return []Status{StatusPending, StatusPublished, StatusRejected}
}

// ParseStatus converts raw input into a Status.
// PRE: none
// POST: Returns a valid Status or ErrInvalidStatus
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusPublished, StatusRejected, StatusArchived:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether s is one of the four course statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// ValidForEvent reports whether s may be held by a congress or webinar.
func (s Status) ValidForEvent() bool {
	return s == StatusPending || s == StatusPublished || s == StatusRejected
}

// IsPublished returns true if the record is visible in the public catalog.
func (s Status) IsPublished() bool {
	return s == StatusPublished
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether actor may move a record from one status to another.
// Admin: every status to every status. Owner: anything to pending (a content edit).
// System: only the initial pending.
// INVARIANT: no status is terminal for the admin
func CanTransition(from, to Status, actor Actor) bool {
	if !to.Valid() {
		return false
	}
	switch actor {
	case ActorAdmin:
		return from.Valid()
	case ActorOwner:
		return from.Valid() && to == StatusPending
	case ActorSystem:
		return from == "" && to == StatusPending
	}
	return false
}

// Transition validates and returns the target status.
// PRE: from is the current status ("" for a new record)
// POST: Returns to, or ErrInvalidTransition
func Transition(from, to Status, actor Actor) (Status, error) {
	if !to.Valid() {
		return from, ErrInvalidStatus
	}
	if !CanTransition(from, to, actor) {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// TouchesCatalog reports whether moving between the two statuses changes what
// the public catalog shows. Any move into or out of published does.
func TouchesCatalog(from, to Status) bool {
	return from != to && (from == StatusPublished || to == StatusPublished)
}
