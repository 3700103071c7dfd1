package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned when a request has no recipient.
var ErrNoRecipients = errors.New("email has no recipient")

// Tags set on course submission e-mails, so the Resend dashboard can filter them.
const (
	TagCategory              = "category"
	TagCourseID              = "course_id"
	TagStatus                = "status"
	CategoryCourseSubmission = "course_submission"
)

// SubmissionTags returns the provider tags of a course submission e-mail.
func SubmissionTags(s CourseSubmission) map[string]string {
	tags := map[string]string{TagCategory: CategoryCourseSubmission}
	if s.CourseID != "" {
		tags[TagCourseID] = s.CourseID
	}
	if s.Status != "" {
		tags[TagStatus] = s.Status
	}
	return tags
}

// resendTags converts tags to the Resend form, sorted by name.
// Resend accepts only ASCII letters, digits, '_' and '-'; anything else becomes '_'.
func resendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		if name == "" || value == "" {
			continue
		}
		out = append(out, resend.Tag{Name: tagSafe(name), Value: tagSafe(value)})
	}
	slices.SortFunc(out, func(a, b resend.Tag) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func tagSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a new ResendSender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send sends a single email via Resend.
// PRE: req has at least one recipient and a subject
// POST: Email is queued for delivery; returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	from := req.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Tags:    resendTags(req.Tags),
	}
	if req.ReplyTo != "" {
		params.ReplyTo = req.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", req.To, "subject", req.Subject, "category", req.Tags[TagCategory])
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", req.To, "subject", req.Subject, "category", req.Tags[TagCategory])
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
