package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken produces a salted one-way hash of a refresh token for storage.
// Tokens are longer than bcrypt's 72-byte input limit, so they are reduced
// to a sha256 digest first.
func HashToken(token string) (string, error) {
	digest := tokenDigest(token)
	hash, err := bcrypt.GenerateFromPassword([]byte(digest), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckToken verifies a refresh token against a stored HashToken value.
func CheckToken(token, hash string) bool {
	digest := tokenDigest(token)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(digest)) == nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
