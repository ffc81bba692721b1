package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingToken is returned when a protected request carries no token.
	ErrMissingToken = errors.New("missing token")
	// ErrTokenInvalid covers bad signatures, malformed tokens, and expiry.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned when the token's jti is on the blocklist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrWrongTokenType is returned when type verification is enabled and the
	// token's type does not match the required one.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrTokenNotFresh is returned when a fresh access token is required but
	// the presented one was minted through a refresh.
	ErrTokenNotFresh = errors.New("fresh token required")
	// ErrInvalidCredentials is returned on email/password mismatch. Lookups
	// and hash mismatches collapse into the same error on purpose.
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	// ErrUserNotFound is returned when a token's subject no longer resolves
	// to an account.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailUnverified gates unconfirmed accounts out of every protected
	// operation.
	ErrEmailUnverified = errors.New("email address not verified")
	// ErrAccountDeleted is returned for soft-deleted accounts.
	ErrAccountDeleted = errors.New("account was deleted")
	// ErrEmailExists is returned on registration with a taken email.
	ErrEmailExists = errors.New("email already exists")
	// ErrStoreUnavailable wraps connectivity failures of the revocation or
	// credential store. The only error class callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// LockedError is returned while an account block is still active. It carries
// the block metadata surfaced to the caller alongside the 423 status.
type LockedError struct {
	Reason string
	Until  time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account blocked until %s: %s", e.Until.Format(time.RFC3339), e.Reason)
}

// AsLocked unwraps err into a LockedError if it carries one.
func AsLocked(err error) (*LockedError, bool) {
	var le *LockedError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
