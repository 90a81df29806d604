package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers everything else: malformed, wrong signature,
	// wrong signing method.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the minimal payload carried by both token classes.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens. The two classes
// use independent secrets so compromise of one cannot forge the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess creates a short-lived access token.
func (c *TokenCodec) IssueAccess(userID, email, role string) (string, error) {
	return c.sign(userID, email, role, c.accessSecret, c.accessTTL)
}

// IssueRefresh creates a refresh token. The caller is responsible for
// pairing it with a session record; the token alone grants nothing.
func (c *TokenCodec) IssueRefresh(userID, email, role string) (string, error) {
	return c.sign(userID, email, role, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return c.parse(token, c.accessSecret)
}

func (c *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return c.parse(token, c.refreshSecret)
}

func (c *TokenCodec) sign(userID, email, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *TokenCodec) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
