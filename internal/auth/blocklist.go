package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker values stored under a revoked jti. The value is informational; the
// key's presence is what revokes.
const (
	markerAccessRevoked  = "access token revoked"
	markerRefreshRevoked = "refresh token revoked"
)

// Blocklist records revoked token identifiers in Redis. Entries carry a TTL
// equal to the remaining lifetime of the token they revoke and are never
// deleted explicitly; once the token itself has expired the entry lapses.
type Blocklist struct {
	rdb redis.UniversalClient
}

// NewBlocklist wraps a Redis client as a revocation store.
func NewBlocklist(rdb redis.UniversalClient) *Blocklist {
	return &Blocklist{rdb: rdb}
}

// Revoke inserts a revocation entry for jti. typ selects the stored marker.
func (b *Blocklist) Revoke(ctx context.Context, jti, typ string, ttl time.Duration) error {
	marker := markerAccessRevoked
	if typ == TypeRefresh {
		marker = markerRefreshRevoked
	}
	if err := b.rdb.Set(ctx, jti, marker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti has an active revocation entry.
func (b *Blocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := b.rdb.Get(ctx, jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}
