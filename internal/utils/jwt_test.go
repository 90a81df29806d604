package utils

import (
	"errors"
	"testing"
	"time"
)

func testCodec() *TokenCodec {
	return NewTokenCodec("access-test-secret", "refresh-test-secret", 5*time.Minute, 30*time.Minute)
}

func TestIssueAccess(t *testing.T) {
	codec := testCodec()

	token, err := codec.IssueAccess("u1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	if token == "" {
		t.Error("IssueAccess() returned empty token")
	}
	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestVerifyAccess_RoundTrip(t *testing.T) {
	codec := testCodec()

	token, _ := codec.IssueAccess("u42", "a@x.com", "admin")
	claims, err := codec.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}

	if claims.UserID != "u42" {
		t.Errorf("UserID = %q, expected %q", claims.UserID, "u42")
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestVerify_CrossClassFails(t *testing.T) {
	codec := testCodec()

	access, _ := codec.IssueAccess("u1", "a@x.com", "user")
	refresh, _ := codec.IssueRefresh("u1", "a@x.com", "user")

	if _, err := codec.VerifyRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("access token accepted as refresh: err = %v", err)
	}
	if _, err := codec.VerifyAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access: err = %v", err)
	}
}

func TestVerifyAccess_InvalidTokens(t *testing.T) {
	codec := testCodec()

	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		if _, err := codec.VerifyAccess(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("VerifyAccess(%q): err = %v, expected ErrTokenInvalid", token, err)
		}
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	codec := NewTokenCodec("a-secret", "r-secret", -time.Minute, 30*time.Minute)

	token, _ := codec.IssueAccess("u1", "a@x.com", "user")
	_, err := codec.VerifyAccess(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, expected ErrTokenExpired", err)
	}
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	codec := testCodec()
	other := NewTokenCodec("different-access", "different-refresh", 5*time.Minute, 30*time.Minute)

	token, _ := codec.IssueAccess("u1", "a@x.com", "user")
	if _, err := other.VerifyAccess(token); err == nil {
		t.Error("VerifyAccess should fail with wrong secret")
	}
}

func TestIssueAccess_ExpirationWindow(t *testing.T) {
	codec := testCodec()

	token, _ := codec.IssueAccess("u1", "a@x.com", "user")
	claims, _ := codec.VerifyAccess(token)

	expectedExpiry := time.Now().Add(5 * time.Minute)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration time is off by more than 1 minute: %v", diff)
	}
}
