package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerToken("Token abc")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSession(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": "u1",
		"role":    "pro",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	id, role, err := ParseSession(secret, signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	assert.Equal(t, "pro", role)

	_, _, err = ParseSession([]byte("other"), signed)
	assert.Error(t, err)
}

func TestVaultTokenRoundTrip(t *testing.T) {
	now := time.Now()
	signed, exp, err := IssueVaultToken(secret, "c1", 15*time.Minute, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), exp, time.Second)

	id, err := ParseVaultToken(secret, signed)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
}

func TestVaultTokenRejectsExpiredAndSessionTokens(t *testing.T) {
	signed, _, err := IssueVaultToken(secret, "c1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseVaultToken(secret, signed)
	assert.Error(t, err)

	session, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "c1",
		"sub":     "c1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseVaultToken(secret, session)
	assert.Error(t, err)
}
