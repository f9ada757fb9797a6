package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret")
	id := uuid.New()

	signed, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokens("one").Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewTokens("two").Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpires(t *testing.T) {
	tokens := NewTokens("test-secret")
	issued := time.Now().Add(-25 * time.Hour)
	tokens.now = func() time.Time { return issued }
	signed, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsForeignClaims(t *testing.T) {
	tokens := NewTokens("test-secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	numericID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(numericID)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
