package notification

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyMessage = errors.New("notification message cannot be empty")
	ErrAlreadyRead  = errors.New("notification is already read")
)

// Notification is an admin-facing message raised by a submission.
// Delivery by e-mail is separate and best-effort; this record always exists.
type Notification struct {
	ID        string
	Message   string
	CourseID  string // empty when the notification is not about a course
	Read      bool
	CreatedAt time.Time
	ReadAt    time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if strings.TrimSpace(n.Message) == "" {
		return ErrEmptyMessage
	}
	if n.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// MarkRead flags the notification as read.
// PRE: Notification is unread
// POST: Read is true, ReadAt is set
func (n *Notification) MarkRead(now time.Time) error {
	if n.Read {
		return ErrAlreadyRead
	}
	n.Read = true
	n.ReadAt = now
	return nil
}
