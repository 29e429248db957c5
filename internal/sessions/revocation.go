// Package sessions tracks revoked access tokens in Redis so a token can be
// withdrawn before it expires.
package sessions

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:access:"

// ErrRevocationDisabled is returned when no Redis client is configured, so a
// token cannot be withdrawn before it expires.
var ErrRevocationDisabled = errors.New("token revocation is not configured")

var revocationClient atomic.Pointer[redis.Client]

// SetRevocationClient configures the Redis client used for revocation checks.
// Passing nil disables revocation: RevokeAccessToken fails and no token is
// reported as revoked.
func SetRevocationClient(c *redis.Client) {
	revocationClient.Store(c)
}

// RevokeAccessToken marks token as revoked for ttl, which should be the
// token's remaining lifetime. Expired tokens (ttl <= 0) need no entry.
func RevokeAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	c := revocationClient.Load()
	if c == nil {
		return ErrRevocationDisabled
	}
	if ttl <= 0 {
		return nil
	}
	return c.Set(ctx, revokedPrefix+token, "1", ttl).Err()
}

// IsAccessTokenRevoked reports whether token was revoked. Without a client it
// always returns (false, nil).
func IsAccessTokenRevoked(ctx context.Context, token string) (bool, error) {
	c := revocationClient.Load()
	if c == nil {
		return false, nil
	}
	n, err := c.Exists(ctx, revokedPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
