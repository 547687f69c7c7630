// Package token inspects bearer tokens issued by the Backlify backend.
//
// The client never validates signatures; tokens are opaque credentials
// minted and verified server-side. Claims are decoded without
// verification purely to drive proactive refresh (exp) and identity
// header selection (username).
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of JWT claims the client cares about.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses a JWT without verifying its signature and returns the
// claims. Returns an error for anything that is not a structurally
// valid JWT.
func Decode(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("token: decode: %w", err)
	}
	return claims, nil
}

// Username returns the username claim of the token, falling back to
// the sub claim, or "" if the token cannot be decoded.
func Username(tokenStr string) string {
	claims, err := Decode(tokenStr)
	if err != nil {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return claims.Subject
}

// ExpiresWithin reports whether the token's exp claim falls within the
// given margin from now. Tokens without a decodable exp claim are
// treated as not expiring, so a malformed token never forces a refresh
// loop on its own.
func ExpiresWithin(tokenStr string, margin time.Duration) bool {
	claims, err := Decode(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < margin
}
