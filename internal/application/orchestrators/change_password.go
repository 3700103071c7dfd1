package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"formations/internal/domain/account"
)

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	Actor           Actor
	CurrentPassword string
	NewPassword     string
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Now          func() time.Time
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from current password")
)

// ExecuteChangePassword checks the current password and stores the new one.
// A wrong current password counts as a failed login.
// PRE: Actor is authenticated
// POST: Password hash replaced; failed login counter cleared
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if !input.Actor.Authenticated() {
		return ErrUnauthenticated
	}
	acct, err := deps.AccountStore.GetByID(ctx, input.Actor.AccountID)
	if err != nil {
		return err
	}

	now := deps.Now()
	if acct.IsLocked(now) {
		return ErrAccountLocked
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Warn("auth_event", "event", "failed_login_not_recorded", "account_id", acct.ID, "error", err)
		}
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	return nil
}
