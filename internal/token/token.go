// Package token reads the claims of session tokens without verifying them.
// Verification is the backend's job; the client only needs expiry and role.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformed = errors.New("malformed token")

type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c *Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

var parser = jwt.NewParser()

func Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return nil, ErrMalformed
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mapClaims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Email, _ = mapClaims["email"].(string)
	claims.Role, _ = mapClaims["role"].(string)

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}

// IsExpired is true when exp is at or before now, and also for tokens that are
// malformed or carry no exp at all.
func IsExpired(raw string, now time.Time) bool {
	claims, err := Parse(raw)
	if err != nil || !claims.HasExpiry() {
		return true
	}
	return !now.Before(claims.ExpiresAt)
}

// ExpiresAt returns the expiry when it can be derived from the token.
func ExpiresAt(raw string) (time.Time, bool) {
	claims, err := Parse(raw)
	if err != nil || !claims.HasExpiry() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}

// RemainingTime is zero for expired or undecodable tokens.
func RemainingTime(raw string, now time.Time) time.Duration {
	exp, ok := ExpiresAt(raw)
	if !ok || !now.Before(exp) {
		return 0
	}
	return exp.Sub(now)
}

func Role(raw string) string {
	claims, err := Parse(raw)
	if err != nil {
		return ""
	}
	return claims.Role
}
