package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"exp in the future", sign(t, jwt.MapClaims{"sub": "1", "exp": now.Add(time.Hour).Unix()}), false},
		{"exp in the past", sign(t, jwt.MapClaims{"sub": "1", "exp": now.Add(-time.Minute).Unix()}), true},
		{"exp equal to now", sign(t, jwt.MapClaims{"sub": "1", "exp": now.Unix()}), true},
		{"missing exp", sign(t, jwt.MapClaims{"sub": "1"}), true},
		{"opaque token", "t1", true},
		{"garbage segments", "a.b.c", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(tt.token, now))
		})
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	raw := sign(t, jwt.MapClaims{"sub": "user-9", "role": "operator", "email": "op@zurura.test", "exp": exp.Unix()})

	claims, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "op@zurura.test", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.Equal(t, "operator", Role(raw))
}

func TestRemainingTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	raw := sign(t, jwt.MapClaims{"exp": now.Add(90 * time.Second).Unix()})

	assert.Equal(t, 90*time.Second, RemainingTime(raw, now))
	assert.Equal(t, time.Duration(0), RemainingTime(raw, now.Add(2*time.Minute)))
	assert.Equal(t, time.Duration(0), RemainingTime("opaque", now))

	_, ok := ExpiresAt("opaque")
	assert.False(t, ok)
}
