package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "tasklist")

	token, err := tm.GenerateToken("tenant-1", "user-1", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("expected tenant-1, got %q", claims.TenantID)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email preserved, got %q", claims.Email)
	}
}

func TestGenerateTokenRequiresIdentity(t *testing.T) {
	tm := NewTokenManager("test-secret", "tasklist")

	if _, err := tm.GenerateToken("", "user-1", "", time.Hour); err == nil {
		t.Error("expected error for missing tenant")
	}
	if _, err := tm.GenerateToken("tenant-1", "", "", time.Hour); err == nil {
		t.Error("expected error for missing user")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", "tasklist")
	other := NewTokenManager("different-secret", "tasklist")

	token, err := tm.GenerateToken("tenant-1", "user-1", "", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "tasklist")

	token, err := tm.GenerateToken("tenant-1", "user-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := tm.ValidateToken(token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", "tasklist")

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tm.ValidateToken(raw); err == nil {
			t.Errorf("expected failure for %q", raw)
		}
	}
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	if err != nil || token != "abc123" {
		t.Errorf("expected abc123, got %q err %v", token, err)
	}

	// Scheme is case-insensitive.
	token, err = ExtractToken("bearer abc123")
	if err != nil || token != "abc123" {
		t.Errorf("expected abc123 for lowercase scheme, got %q err %v", token, err)
	}

	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer"} {
		if _, err := ExtractToken(header); err == nil {
			t.Errorf("expected error for header %q", header)
		}
	}
}
