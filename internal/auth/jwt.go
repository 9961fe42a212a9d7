package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Claims binds a user id and display name. ExpiresAt is only set when the manager has a ttl.
type Claims struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret      []byte
	ttl         time.Duration
	retention   time.Duration
	revocations Revocations
}

// NewManager builds a token manager. A ttl of zero issues tokens without an exp claim;
// retention bounds how long a revoked token of that kind is remembered.
func NewManager(secret string, ttl time.Duration, revocations Revocations, retention time.Duration) *Manager {
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		retention:   retention,
		revocations: revocations,
	}
}

func (m *Manager) Issue(userID, name string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		ID:   userID,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  userID,
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Verify parses the token and rejects it when its jti has been revoked.
func (m *Manager) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.RegisteredClaims.ID != "" {
		revoked, err := m.revocations.IsRevoked(ctx, claims.RegisteredClaims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	return claims, nil
}

// Revoke remembers the token's jti until the token would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	jti := claims.RegisteredClaims.ID
	if jti == "" {
		return ErrInvalidToken
	}

	ttl := m.retention
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	return m.revocations.Revoke(ctx, jti, ttl)
}
