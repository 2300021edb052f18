package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLooksExpired decodes the token's exp claim without verifying the
// signature and reports whether it is already in the past. This is only a
// hint for skipping a round trip: a false return proves nothing, and the
// backend's validate endpoint remains the authority either way. Tokens that
// are not JWTs, or carry no exp claim, never look expired.
func TokenLooksExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Time.Before(now)
}
