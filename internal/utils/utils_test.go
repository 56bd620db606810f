package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("brinjal-2024")
	require.NoError(t, err)
	assert.NotEqual(t, "brinjal-2024", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
	assert.True(t, h.Verify(hash, "brinjal-2024"))
	assert.False(t, h.Verify(hash, "brinjal-2025"))
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(4)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_CostFallback(t *testing.T) {
	assert.Equal(t, 10, NewPasswordHasher(0).Cost)
	assert.Equal(t, 12, NewPasswordHasher(12).Cost)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	_, err := NewPasswordHasher(4).Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", "u-1", "asha@farm.in", time.Hour, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "asha@farm.in", claims.Email)
}

func TestParseSessionToken_Expired(t *testing.T) {
	tok, err := NewSessionToken("secret", "u-1", "a@x.com", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ParseSessionToken("secret", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	tok, err := NewSessionToken("right", "u-1", "a@x.com", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseSessionToken("wrong", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseSessionToken_TamperedSignature(t *testing.T) {
	tok, err := NewSessionToken("secret", "u-1", "a@x.com", time.Hour, time.Now())
	require.NoError(t, err)

	sig := tok.Token[strings.LastIndex(tok.Token, ".")+1:]
	flipped := "A"
	if sig[0] == 'A' {
		flipped = "B"
	}
	tampered := tok.Token[:strings.LastIndex(tok.Token, ".")+1] + flipped + sig[1:]

	_, err = ParseSessionToken("secret", tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseSessionToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: "u-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseSessionToken("secret", raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseSessionToken_Malformed(t *testing.T) {
	_, err := ParseSessionToken("secret", "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
