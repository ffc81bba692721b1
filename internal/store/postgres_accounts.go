package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/model"
)

const accountColumns = `uuid, first_name, last_name, email, email_verified, password,
	is_deleted, removal_reason, deleted_at,
	is_blocked, blocked_reason, blocked_until, created_at`

// PostgresAccounts stores accounts in the users table.
type PostgresAccounts struct {
	db *sql.DB
}

func NewPostgresAccounts(db *sql.DB) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

func (r *PostgresAccounts) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findBy(ctx, "email", email)
}

func (r *PostgresAccounts) FindByUUID(ctx context.Context, uuid string) (*model.Account, error) {
	return r.findBy(ctx, "uuid", uuid)
}

func (r *PostgresAccounts) findBy(ctx context.Context, column, value string) (*model.Account, error) {
	a := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&a.UUID, &a.FirstName, &a.LastName, &a.Email, &a.EmailVerified, &a.PasswordHash,
		&a.IsDeleted, &a.RemovalReason, &a.DeletedAt,
		&a.IsBlocked, &a.BlockedReason, &a.BlockedUntil, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find account by %s: %v", auth.ErrStoreUnavailable, column, err)
	}
	return a, nil
}

func (r *PostgresAccounts) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (uuid, first_name, last_name, email, email_verified, password, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.UUID, account.FirstName, account.LastName, account.Email,
		account.EmailVerified, account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert account: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresAccounts) ClearBlock(ctx context.Context, uuid string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_blocked = FALSE, blocked_reason = NULL, blocked_until = NULL
		 WHERE uuid = $1`,
		uuid,
	)
	if err != nil {
		return fmt.Errorf("%w: clear account block: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresAccounts) MarkVerified(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE WHERE email = $1`,
		email,
	)
	if err != nil {
		return false, fmt.Errorf("%w: mark account verified: %v", auth.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: mark account verified: %v", auth.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (r *PostgresAccounts) MarkDeleted(ctx context.Context, uuid, reason string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_deleted = TRUE, removal_reason = $2, deleted_at = $3
		 WHERE uuid = $1`,
		uuid, reason, at,
	)
	if err != nil {
		return fmt.Errorf("%w: mark account deleted: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresAccounts) Update(ctx context.Context, uuid string, upd model.AccountUpdate) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email)
		 WHERE uuid = $1`,
		uuid, upd.FirstName, upd.LastName, upd.Email,
	)
	if err != nil {
		return fmt.Errorf("%w: update account: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}
