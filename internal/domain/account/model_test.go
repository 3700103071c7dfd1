package account_test

import (
	"strings"
	"testing"
	"time"

	"formations/internal/domain/account"
	"formations/internal/domain/profile"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr bool
	}{
		{"valid admin", account.Account{ID: "1", Email: "admin@formations.fr", DisplayName: "Modération", Role: account.RoleAdmin}, false},
		{"valid trainer", account.Account{ID: "2", Email: "marie@exemple.fr", DisplayName: "Marie Lefort", Role: account.RoleTrainer}, false},
		{"valid organization", account.Account{ID: "3", Email: "contact@orga.fr", DisplayName: "Ortho Formation", Role: account.RoleOrganization}, false},
		{"valid user", account.Account{ID: "4", Email: "lucie@exemple.fr", DisplayName: "Lucie", Role: account.RoleUser}, false},
		{"empty email", account.Account{ID: "5", DisplayName: "X", Role: account.RoleUser}, true},
		{"email without at", account.Account{ID: "6", Email: "nope", DisplayName: "X", Role: account.RoleUser}, true},
		{"email too long", account.Account{ID: "7", Email: strings.Repeat("a", 250) + "@x.fr", DisplayName: "X", Role: account.RoleUser}, true},
		{"empty display name", account.Account{ID: "8", Email: "a@b.fr", DisplayName: " ", Role: account.RoleUser}, true},
		{"invalid role", account.Account{ID: "9", Email: "a@b.fr", DisplayName: "X", Role: "coach"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_SetPassword tests the SetPassword method.
func TestAccount_SetPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "orthophonie2026", false},
		{"exactly 12 chars", "123456789012", false},
		{"empty password", "", true},
		{"11 chars", "12345678901", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &account.Account{}
			err := a.SetPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (a.PasswordHash == "" || a.PasswordHash == tt.password) {
				t.Error("SetPassword() should store a hash")
			}
		})
	}
}

// TestAccount_CheckPassword tests the CheckPassword method.
func TestAccount_CheckPassword(t *testing.T) {
	a := &account.Account{}
	if err := a.SetPassword("orthophonie2026"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := a.CheckPassword("orthophonie2026"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := a.CheckPassword("orthophonie2027"); err != account.ErrWrongPassword {
		t.Errorf("wrong password error = %v", err)
	}
	empty := &account.Account{}
	if err := empty.CheckPassword("anypassword1234"); err == nil {
		t.Error("CheckPassword() should fail when no hash is set")
	}
}

// TestAccount_Lockout tests failed login counting and lockout.
func TestAccount_Lockout(t *testing.T) {
	a := &account.Account{}
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin(now)
		if a.IsLocked(now) {
			t.Fatalf("account should not be locked after %d failures", i+1)
		}
	}
	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Error("account should be locked after 5 failures")
	}
	if a.IsLocked(now.Add(16 * time.Minute)) {
		t.Error("lock should expire after 15 minutes")
	}
	a.ResetFailedLogins()
	if a.FailedLogins != 0 || a.IsLocked(now) {
		t.Error("reset should clear the lock")
	}
}

// TestAccount_ProfileKind tests the role to profile kind mapping.
func TestAccount_ProfileKind(t *testing.T) {
	tests := []struct {
		role   string
		want   profile.Kind
		wantOK bool
	}{
		{account.RoleTrainer, profile.KindTrainer, true},
		{account.RoleOrganization, profile.KindOrganization, true},
		{account.RoleAdmin, "", false},
		{account.RoleUser, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			a := &account.Account{Role: tt.role}
			got, ok := a.ProfileKind()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ProfileKind() = %s, %v", got, ok)
			}
			if a.IsAdmin() != (tt.role == account.RoleAdmin) {
				t.Errorf("IsAdmin() = %v", a.IsAdmin())
			}
		})
	}
}
