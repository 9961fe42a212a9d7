package auth

import (
	"context"
	"time"

	"github.com/naydelinzavala7/back-login-mongo/internal/cache"
	"github.com/naydelinzavala7/back-login-mongo/internal/redisclient"
)

// Revocations remembers revoked token ids for a bounded time.
type Revocations interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type MemoryRevocations struct {
	c *cache.Cache
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{c: cache.New(time.Hour)}
}

func (r *MemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.c.SetWithTTL(jti, struct{}{}, ttl)
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.c.Get(jti)
	return ok, nil
}

const revokedKeyPrefix = "auth:revoked:"

type RedisRevocations struct {
	client *redisclient.Client
}

func NewRedisRevocations(client *redisclient.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.client.Raw().Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Raw().Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
