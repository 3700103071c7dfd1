package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"formations/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	email := strings.TrimSpace(input.Email)
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return account.Account{}, ErrEmailAlreadyExists
	}

	acct := account.Account{
		ID:          deps.GenerateID(),
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        input.Role,
		CreatedAt:   deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}

// ExecuteRegister is the public sign-up. It never grants the admin role.
// PRE: Role is trainer, organization or user
// POST: Account created; trainer and organization accounts claim their profile on first dashboard visit
func ExecuteRegister(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	if input.Role == "" {
		input.Role = account.RoleUser
	}
	if input.Role == account.RoleAdmin {
		return account.Account{}, account.ErrInvalidRole
	}
	return ExecuteCreateAccount(ctx, input, deps)
}

// ExecuteSeedAdmin creates a default admin account if no accounts exist.
// PRE: Database is initialized
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:       email,
		Password:    password,
		DisplayName: "Administration",
		Role:        account.RoleAdmin,
	}, deps); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
