package outbox

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestEntry_Validate tests validation and the max attempts default.
func TestEntry_Validate(t *testing.T) {
	e := Entry{ActionType: ActionTypeAdminEmail, Payload: "{}", CreatedAt: t0}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if e.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", e.MaxAttempts, DefaultMaxAttempts)
	}
	if err := (&Entry{Payload: "{}", CreatedAt: t0}).Validate(); err != ErrEmptyActionType {
		t.Errorf("missing action type error = %v", err)
	}
	if err := (&Entry{ActionType: ActionTypeAdminEmail, CreatedAt: t0}).Validate(); err != ErrEmptyPayload {
		t.Errorf("missing payload error = %v", err)
	}
}

// TestEntry_Lifecycle walks an entry through failed attempts to terminal failure.
func TestEntry_Lifecycle(t *testing.T) {
	e := Entry{Status: StatusPending, MaxAttempts: 2}
	e.MarkAttempt(t0)
	e.MarkFailed(errors.New("smtp down"))
	if e.Status != StatusRetrying || !e.CanRetry() {
		t.Fatalf("after first failure status = %s, CanRetry = %v", e.Status, e.CanRetry())
	}
	e.MarkAttempt(t0.Add(time.Minute))
	e.MarkFailed(errors.New("smtp down"))
	if e.Status != StatusFailed || !e.IsTerminal() || e.CanRetry() {
		t.Errorf("after last failure status = %s, terminal = %v", e.Status, e.IsTerminal())
	}
	if e.ErrorMessage != "smtp down" {
		t.Errorf("ErrorMessage = %q", e.ErrorMessage)
	}
}

// TestEntry_MarkSuccess tests that success is terminal and clears the error.
func TestEntry_MarkSuccess(t *testing.T) {
	e := Entry{Status: StatusRetrying, ErrorMessage: "x", MaxAttempts: 5}
	e.MarkSuccess("msg-1")
	if !e.IsTerminal() || e.ExternalID != "msg-1" || e.ErrorMessage != "" {
		t.Errorf("entry = %+v", e)
	}
}

// TestEntry_NextRetryDelay tests exponential backoff with a cap.
func TestEntry_NextRetryDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second},
		{1, time.Minute},
		{3, 4 * time.Minute},
		{10, time.Hour},
		{64, time.Hour},
	}
	for _, tt := range tests {
		e := Entry{Attempts: tt.attempts}
		if got := e.NextRetryDelay(30*time.Second, time.Hour); got != tt.want {
			t.Errorf("attempts=%d: delay = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

// TestEntry_ReadyAt tests the next attempt time.
func TestEntry_ReadyAt(t *testing.T) {
	fresh := Entry{CreatedAt: t0}
	if got := fresh.ReadyAt(time.Minute, time.Hour); !got.Equal(t0) {
		t.Errorf("fresh ReadyAt = %v", got)
	}
	tried := Entry{CreatedAt: t0, Attempts: 1, LastAttemptedAt: t0}
	if got := tried.ReadyAt(time.Minute, time.Hour); !got.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("tried ReadyAt = %v", got)
	}
}
