package captcha

import (
	"context"
	"strconv"
	"time"
)

// Challenge is returned to a caller who has not yet proven intent. The
// caller must retry the original operation with the answer.
type Challenge struct {
	Problem  string
	IssuedAt time.Time
}

// Guard runs the two-phase step-up protocol for one (account, purpose)
// pair per call.
type Guard struct {
	store *Store
}

// NewGuard builds a guard over the challenge store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// Check evaluates one attempt at the guarded operation. A nil Challenge
// means the answer matched, the challenge was consumed, and the operation
// may proceed. A non-nil Challenge means a (new) problem was issued and the
// request is not yet authorized:
//
//   - no answer supplied: a fresh challenge is issued;
//   - answer supplied but no live challenge (never issued, or expired):
//     treated as a fresh request, new challenge issued;
//   - answer does not match: the old challenge is overwritten with a new one.
//
// One-time use: the stored answer is deleted on the first match, so
// resubmitting it fails and rotates the challenge.
func (g *Guard) Check(ctx context.Context, accountID, purpose, answer string) (*Challenge, error) {
	expected, found, err := g.store.Get(ctx, accountID, purpose)
	if err != nil {
		return nil, err
	}

	if found && answer != "" {
		if n, convErr := strconv.Atoi(answer); convErr == nil && n == expected {
			if err := g.store.Delete(ctx, accountID, purpose); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}

	problem := NewProblem()
	if err := g.store.Save(ctx, accountID, purpose, problem.Answer); err != nil {
		return nil, err
	}
	return &Challenge{Problem: problem.Question, IssuedAt: time.Now()}, nil
}
