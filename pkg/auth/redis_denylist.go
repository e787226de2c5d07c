package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "auth:denylist:"

// redisKV is the subset of redis.Cmdable used by RedisDenylist.
type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// minClaimTTL keeps a claim on a token at its expiry edge long enough to
// outlive the verifier's clock skew.
const minClaimTTL = time.Minute

// RedisDenylist stores revoked token ids in Redis with a TTL matching token expiry.
type RedisDenylist struct {
	client redisKV
	now    func() time.Time
}

// NewRedisDenylist creates a denylist backed by client.
func NewRedisDenylist(client redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// Claim relies on SET NX so that concurrent claims across instances race in Redis.
func (d *RedisDenylist) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := max(until.Sub(d.now()), minClaimTTL)
	ok, err := d.client.SetNX(ctx, denylistKeyPrefix+tokenID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim token: %w", err)
	}
	return ok, nil
}

var _ Denylist = (*RedisDenylist)(nil)
