package utils

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}
	if hash == password {
		t.Error("HashPassword() should not return plaintext password")
	}
	if len(hash) < 50 {
		t.Errorf("hash seems too short: %d chars", len(hash))
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	hash1, _ := HashPassword("testpassword")
	hash2, _ := HashPassword("testpassword")

	if hash1 == hash2 {
		t.Error("same password should produce different hashes (due to salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "correctpassword"
	hash, _ := HashPassword(password)

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"correct password", "correctpassword", true},
		{"wrong password", "wrongpassword", false},
		{"empty password", "", false},
		{"similar password", "correctpassword1", false},
		{"case sensitive", "CorrectPassword", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, hash); got != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, got, tt.expected)
			}
		})
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("password", "invalid_hash") {
		t.Error("CheckPassword should return false for invalid hash")
	}
}

func TestHashToken_RoundTrip(t *testing.T) {
	// JWTs blow past bcrypt's 72-byte limit; HashToken must still
	// distinguish tokens that share a long common prefix.
	prefix := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 5)
	token1 := prefix + "signature-one"
	token2 := prefix + "signature-two"

	hash, err := HashToken(token1)
	if err != nil {
		t.Fatalf("HashToken() error = %v", err)
	}

	if !CheckToken(token1, hash) {
		t.Error("CheckToken should accept the original token")
	}
	if CheckToken(token2, hash) {
		t.Error("CheckToken accepted a different token with the same prefix")
	}
}

func TestHashToken_NeverStoresPlaintext(t *testing.T) {
	token := "some.refresh.token"
	hash, _ := HashToken(token)

	if strings.Contains(hash, token) {
		t.Error("hash contains the plaintext token")
	}
}
