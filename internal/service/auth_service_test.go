package service

import (
	"testing"

	"github.com/yourorg/tasklist/internal/repository"
	"github.com/yourorg/tasklist/internal/security/auth"
)

func newTestAuthService() *AuthService {
	return NewAuthService(repository.NewMemoryUserRepository(), auth.NewTokenManager("test-secret", "tasklist"), nil)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestAuthService()

	r, err := s.Register("alice@example.com", "alice", "Password123", "tenant-1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.UserID == "" || r.Token == "" {
		t.Fatal("expected user id and token")
	}
	if r.TenantID != "tenant-1" {
		t.Errorf("expected tenant-1, got %q", r.TenantID)
	}

	l, err := s.Login("alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if l.Token == "" || l.TokenType != "Bearer" {
		t.Errorf("unexpected login result: %+v", l)
	}

	// The issued token must carry the tenant the gate will bind.
	claims, err := auth.NewTokenManager("test-secret", "tasklist").ValidateToken(l.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("token tenant: expected tenant-1, got %q", claims.TenantID)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestAuthService()

	cases := []struct {
		name                               string
		email, username, password, tenant string
	}{
		{"missing email", "", "alice", "Password123", "tenant-1"},
		{"missing username", "a@b.c", "", "Password123", "tenant-1"},
		{"missing tenant", "a@b.c", "alice", "Password123", ""},
		{"short password", "a@b.c", "alice", "short", "tenant-1"},
	}
	for _, tc := range cases {
		if _, err := s.Register(tc.email, tc.username, tc.password, tc.tenant); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := newTestAuthService()
	if _, err := s.Register("alice@example.com", "alice", "Password123", "tenant-1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := s.Register("alice@example.com", "alice2", "Password123", "tenant-1"); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
	if _, err := s.Register("alice2@example.com", "alice", "Password123", "tenant-1"); err == nil {
		t.Error("expected duplicate username to be rejected")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestAuthService()
	s.Register("alice@example.com", "alice", "Password123", "tenant-1")

	if _, err := s.Login("alice@example.com", "WrongPassword"); err == nil {
		t.Error("expected wrong password to fail")
	}
	// Unknown accounts fail with the same generic error.
	_, errUnknown := s.Login("nobody@example.com", "Password123")
	_, errWrong := s.Login("alice@example.com", "WrongPassword")
	if errUnknown == nil || errWrong == nil || errUnknown.Error() != errWrong.Error() {
		t.Errorf("expected identical generic errors, got %v vs %v", errUnknown, errWrong)
	}
}

func TestChangePassword(t *testing.T) {
	s := newTestAuthService()
	r, _ := s.Register("alice@example.com", "alice", "Password123", "tenant-1")

	if err := s.ChangePassword(r.UserID, "WrongOld", "NewPassword123"); err == nil {
		t.Error("expected wrong old password to fail")
	}
	if err := s.ChangePassword(r.UserID, "Password123", "short"); err == nil {
		t.Error("expected short new password to fail")
	}
	if err := s.ChangePassword(r.UserID, "Password123", "NewPassword123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := s.Login("alice@example.com", "Password123"); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := s.Login("alice@example.com", "NewPassword123"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
