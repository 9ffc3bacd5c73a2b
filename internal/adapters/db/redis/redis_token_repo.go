package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RedisTokenRepo keeps the refresh-token blacklist. A key exists only for
// a jti that was revoked by logout; Redis expires it together with the
// token itself, so the set never needs an external purge.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{client: client}
}

func (r *RedisTokenRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.client.Set(ctx, revokedKeyPrefix+jti, 1, safeTTL(expiresAt)).Err()
}

func (r *RedisTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		// fail closed: callers treat a store error as fatal anyway
		return true, err
	}
	return n > 0, nil
}

func safeTTL(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// minimal TTL so the key still disappears eventually
		return time.Hour
	}
	return ttl
}
