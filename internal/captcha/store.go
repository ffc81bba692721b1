package captcha

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modelforge/modelforge/internal/auth"
)

// Store keeps expected answers in Redis under
// "{account_id}-{purpose}-captcha-answer" with a fixed TTL. Single-key
// set/get/delete atomicity is all the protocol relies on; concurrent
// challenges for the same account+purpose race last-write-wins.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewStore wraps a Redis client. ttl bounds how long an unanswered
// challenge stays solvable.
func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(accountID, purpose string) string {
	return fmt.Sprintf("%s-%s-captcha-answer", accountID, purpose)
}

// Save stores the expected answer, overwriting any previous challenge.
func (s *Store) Save(ctx context.Context, accountID, purpose string, answer int) error {
	if err := s.rdb.Set(ctx, key(accountID, purpose), strconv.Itoa(answer), s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the stored answer, or found=false when no live challenge
// exists for the account+purpose pair.
func (s *Store) Get(ctx context.Context, accountID, purpose string) (answer int, found bool, err error) {
	val, err := s.rdb.Get(ctx, key(accountID, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		// Unreadable entry; treat as absent so a new challenge replaces it.
		return 0, false, nil
	}
	return n, true, nil
}

// Delete consumes the challenge.
func (s *Store) Delete(ctx context.Context, accountID, purpose string) error {
	if err := s.rdb.Del(ctx, key(accountID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}
