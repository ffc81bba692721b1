// Package store persists accounts, API keys, and fine-tuning rows in
// PostgreSQL. Lookups return (nil, nil) when no row matches; infrastructure
// failures wrap auth.ErrStoreUnavailable so callers can signal retryability.
package store

import (
	"context"
	"time"

	"github.com/modelforge/modelforge/internal/model"
)

// Accounts is the account persistence surface. It is a superset of the
// credential-store interface the auth gate consumes.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByUUID(ctx context.Context, uuid string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	ClearBlock(ctx context.Context, uuid string) error

	// MarkVerified flips email_verified for the address. Returns
	// (false, nil) when no account has that address.
	MarkVerified(ctx context.Context, email string) (bool, error)

	// MarkDeleted soft-deletes the account with the given reason.
	MarkDeleted(ctx context.Context, uuid, reason string, at time.Time) error

	// Update writes the non-nil fields of the partial update.
	Update(ctx context.Context, uuid string, upd model.AccountUpdate) error
}

// APIKeys is the API-key persistence surface. Creation also provisions the
// paired fine-tuning row inside one transaction.
type APIKeys interface {
	Create(ctx context.Context, key *model.APIKey) error
	FindByUUID(ctx context.Context, uuid string) (*model.APIKey, error)
	// Update writes the key's mutable fields (name, domains).
	Update(ctx context.Context, key *model.APIKey) error
	ListByUser(ctx context.Context, userUUID string) ([]model.APIKey, error)
	MarkDeleted(ctx context.Context, uuid string, at time.Time) error
}

// FineTunings is the fine-tuning bookkeeping surface.
type FineTunings interface {
	FindByAPIKeyUUID(ctx context.Context, apiKeyUUID string) (*model.FineTuning, error)
	// SetTrainingFile records a provider file handle and the upload instant.
	SetTrainingFile(ctx context.Context, uuid string, fileUUID *string, at *time.Time) error
	// SetJob records a provider job handle and marks the row tuned.
	SetJob(ctx context.Context, uuid, jobUUID string, at time.Time) error
}
