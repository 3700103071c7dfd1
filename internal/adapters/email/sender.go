package email

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address, e.g. "Formations <noreply@formations-ortho.fr>"
	Subject string
	HTML    string
	ReplyTo string
	Tags    map[string]string // Provider tags for filtering, e.g. category=course_submission
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string // Provider's message ID for tracking
	SentAt    time.Time
}

// Sender delivers emails through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
