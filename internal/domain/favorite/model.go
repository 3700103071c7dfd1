package favorite

import (
	"errors"
	"time"
)

// ErrIncomplete is returned when either side of the pair is missing.
var ErrIncomplete = errors.New("favorite needs an account and a course")

// Favorite marks a course as saved by an account.
type Favorite struct {
	AccountID string
	CourseID  string
	CreatedAt time.Time
}

// Validate checks if the Favorite has valid data.
func (f *Favorite) Validate() error {
	if f.AccountID == "" || f.CourseID == "" {
		return ErrIncomplete
	}
	return nil
}
