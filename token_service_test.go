package subtrack_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackd/subtrack"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)

	user := &subtrack.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "user@example.com",
	}

	token, err := ts.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, user.ID.String(), claims.Subject())
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestTokenServiceGenerateNilUser(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)

	token, err := ts.Generate(nil)
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestTokenServiceValidateExpired(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)

	claims := &subtrack.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "subtrack",
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	token, err := ts.SignClaims(claims)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, subtrack.ErrTokenExpired)
	assert.True(t, subtrack.IsTokenExpiredError(err))
}

func TestTokenServiceValidateTampered(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)
	other := subtrack.NewTokenService([]byte("a-different-key"), 1, "subtrack", nil)

	user := &subtrack.User{ID: uuid.New()}

	token, err := other.Generate(user)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, subtrack.IsMalformedError(err))
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)
	other := subtrack.NewTokenService([]byte("test-signing-key"), 1, "someone-else", nil)

	user := &subtrack.User{ID: uuid.New()}

	token, err := other.Generate(user)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	ts := subtrack.NewTokenService([]byte("test-signing-key"), 1, "subtrack", nil)

	_, err := ts.Validate("not.a.jwt")
	require.Error(t, err)
	assert.True(t, subtrack.IsMalformedError(err))
}
