package review

import (
	"errors"
	"strings"
	"time"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// MaxCommentLength caps the free-text part of a review.
const MaxCommentLength = 4000

// Domain errors
var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyCourse    = errors.New("review needs a course")
	ErrEmptyAccount   = errors.New("review needs an account")
	ErrCommentTooLong = errors.New("comment cannot exceed 4000 characters")
)

// Review is one account's opinion of one course.
// At most one Review exists per (AccountID, CourseID).
type Review struct {
	ID        string
	CourseID  string
	AccountID string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Review has valid data.
// PRE: Review struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Review) Validate() error {
	if r.CourseID == "" {
		return ErrEmptyCourse
	}
	if r.AccountID == "" {
		return ErrEmptyAccount
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return ErrInvalidRating
	}
	if len(strings.TrimSpace(r.Comment)) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// Summary aggregates the reviews of a course.
type Summary struct {
	Count   int
	Average float64
}

// Summarize computes count and mean rating.
func Summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return Summary{Count: len(reviews), Average: float64(total) / float64(len(reviews))}
}
