// Package model defines the domain models shared across the service,
// handler, and storage layers.
package model

import "time"

// Account is the persisted user record. The block and deletion fields are
// nullable in storage; pointers keep the absent/present distinction.
type Account struct {
	UUID          string
	FirstName     string
	LastName      string
	Email         string
	EmailVerified bool
	PasswordHash  string

	IsDeleted     bool
	RemovalReason *string
	DeletedAt     *time.Time

	IsBlocked     bool
	BlockedReason *string
	BlockedUntil  *time.Time

	CreatedAt time.Time
}

// BlockExpired reports whether the account carries a block whose expiry is
// already in the past at the given instant. Such a block must be cleared on
// the next read-path check rather than by a background job.
func (a *Account) BlockExpired(now time.Time) bool {
	return a.IsBlocked && a.BlockedUntil != nil && !a.BlockedUntil.After(now)
}

// AccountUpdate is a partial update: only fields with a non-nil pointer are
// written. Mirrors the optional per-field update pattern of the account
// endpoint.
type AccountUpdate struct {
	FirstName *string
	LastName  *string
	// TODO: route email changes through the confirmation-token flow so a
	// replaced address is re-verified before it becomes the login identity.
	Email *string
}

// Empty reports whether the update would write nothing.
func (u AccountUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil
}
