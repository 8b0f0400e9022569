package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims mirrors the claims the Go-card backend embeds when it issues a
// token. "nameid" carries the numeric user id, "unique_name" the username.
type TokenClaims struct {
	NameID     string `json:"nameid"`
	UniqueName string `json:"unique_name"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the nameid claim; zero when absent or non-numeric.
func (c *TokenClaims) UserID() int {
	id, err := strconv.Atoi(c.NameID)
	if err != nil {
		return 0
	}
	return id
}

// DecodeToken extracts the claims from a bearer token without verifying the
// signature: the backend issued the token and re-validates it on every call
// this gateway forwards, so the gateway only reads the embedded identity.
// Expired tokens are rejected so a stale credential degrades to an
// unauthenticated session instead of resurrecting an old role.
func DecodeToken(tokenStr string, now time.Time) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return nil, fmt.Errorf("token expired at %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return claims, nil
}
