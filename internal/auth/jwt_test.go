package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("user-123")
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	token, err := m.Issue("user-123")
	require.NoError(t, err)

	later := m.WithClock(func() time.Time { return issuedAt.Add(61 * time.Minute) })
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	stillValid := m.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	_, err = stillValid.Verify(token)
	assert.NoError(t, err)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue("user-123")
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedAndMalformed(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.Issue("user-123")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	for _, raw := range []string{"", "garbage", "a.b.c", tampered} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"sub": "user-123", "exp": time.Now().Add(time.Hour).Unix()}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("test-secret", time.Hour).Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := jwt.MapClaims{"sub": "user-123"}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewManager("test-secret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEmptySecretFailsEverything(t *testing.T) {
	m := NewManager("", time.Hour)

	_, err := m.Issue("user-123")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = m.Verify("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
