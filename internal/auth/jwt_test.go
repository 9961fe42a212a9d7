package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssue_DecodesToIDAndName(t *testing.T) {
	m := NewManager("test-secret", time.Hour, nil, 0)

	tok, err := m.Issue("64b7f0c2a1b2c3d4e5f60718", "Ana")
	require.NoError(t, err)

	claims, err := m.Verify(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.ID)
	require.Equal(t, "Ana", claims.Name)
	require.NotEmpty(t, claims.RegisteredClaims.ID)
	require.NotNil(t, claims.ExpiresAt)
}

func TestIssue_NoExpiryWhenTTLIsZero(t *testing.T) {
	m := NewManager("test-secret", 0, nil, 0)

	tok, err := m.Issue("u1", "Ana")
	require.NoError(t, err)

	claims, err := m.Verify(context.Background(), tok)
	require.NoError(t, err)
	require.Nil(t, claims.ExpiresAt)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Hour, nil, 0)

	past := time.Now().Add(-time.Minute)
	claims := Claims{
		ID:   "u1",
		Name: "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := NewManager("right-secret", time.Hour, nil, 0).Issue("u1", "Ana")
	require.NoError(t, err)

	_, err = NewManager("wrong-secret", time.Hour, nil, 0).Verify(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNonHMAC(t *testing.T) {
	m := NewManager("test-secret", time.Hour, nil, 0)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u1", Name: "Ana"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke_ThenVerifyFails(t *testing.T) {
	ctx := context.Background()
	m := NewManager("test-secret", time.Hour, NewMemoryRevocations(), 0)

	tok, err := m.Issue("u1", "Ana")
	require.NoError(t, err)

	claims, err := m.Verify(ctx, tok)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))

	_, err = m.Verify(ctx, tok)
	require.True(t, errors.Is(err, ErrRevokedToken), "got %v", err)

	other, err := m.Issue("u1", "Ana")
	require.NoError(t, err)
	_, err = m.Verify(ctx, other)
	require.NoError(t, err, "revocation is per token")
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error { return nil }
func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestVerify_RevocationStoreError(t *testing.T) {
	m := NewManager("test-secret", time.Hour, failingRevocations{}, 0)

	tok, err := m.Issue("u1", "Ana")
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), tok)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)
}
