// Package tokens mints and verifies the short-lived JWT access tokens.
// Access tokens are never persisted server-side after issuance; the guard
// middleware verifies them statelessly with the shared signing secret.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims carries the identity asserted by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Mint creates a signed HS256 access token asserting username for ttl.
func Mint(secret []byte, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	})
	return token.SignedString(secret)
}

// Verify parses and validates a raw token and returns its claims.
// Any failure (bad signature, wrong algorithm, expiry) yields ErrInvalidToken.
func Verify(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
