package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/shopglow/go-session"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenLooksExpired(t *testing.T) {
	now := time.Now()

	expired := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()})
	live := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	noExpiry := signedToken(t, jwt.MapClaims{"sub": "maya@example.com"})

	assert.True(t, session.TokenLooksExpired(expired, now))
	assert.False(t, session.TokenLooksExpired(live, now))
	assert.False(t, session.TokenLooksExpired(noExpiry, now))
}

func TestTokenLooksExpiredIsOnlyAHint(t *testing.T) {
	// Anything the decoder cannot read must be treated as possibly live: the
	// backend, not this check, is the authority.
	now := time.Now()

	assert.False(t, session.TokenLooksExpired("", now))
	assert.False(t, session.TokenLooksExpired("opaque-session-token", now))
	assert.False(t, session.TokenLooksExpired("a.b.c", now))
}

func TestTokenLooksExpiredIgnoresSignature(t *testing.T) {
	// The expiry hint never verifies: a garbage signature with a readable
	// exp claim still yields a hint.
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	tampered := token[:len(token)-4] + "XXXX"

	assert.True(t, session.TokenLooksExpired(tampered, now))
}
