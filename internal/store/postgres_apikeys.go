package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/model"
)

const apiKeyColumns = `uuid, key, name, domains, registered_at, is_deleted, deleted_at, user_uuid`

// PostgresAPIKeys stores API keys and their paired fine-tuning rows.
type PostgresAPIKeys struct {
	db *sql.DB
}

func NewPostgresAPIKeys(db *sql.DB) *PostgresAPIKeys {
	return &PostgresAPIKeys{db: db}
}

// Create inserts the key and its fine-tuning row in one transaction so a key
// never exists without its bookkeeping counterpart.
func (r *PostgresAPIKeys) Create(ctx context.Context, key *model.APIKey) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin api key transaction: %v", auth.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO api_keys (uuid, key, name, domains, registered_at, user_uuid)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.UUID, key.Key, key.Name, key.Domains, key.RegisteredAt, key.UserUUID,
	)
	if err != nil {
		return fmt.Errorf("%w: insert api key: %v", auth.ErrStoreUnavailable, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fine_tuning (uuid, api_key_uuid) VALUES ($1, $2)`,
		uuid.NewString(), key.UUID,
	)
	if err != nil {
		return fmt.Errorf("%w: insert fine tuning row: %v", auth.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit api key transaction: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresAPIKeys) FindByUUID(ctx context.Context, keyUUID string) (*model.APIKey, error) {
	k := &model.APIKey{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE uuid = $1`,
		keyUUID,
	).Scan(&k.UUID, &k.Key, &k.Name, &k.Domains, &k.RegisteredAt, &k.IsDeleted, &k.DeletedAt, &k.UserUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find api key: %v", auth.ErrStoreUnavailable, err)
	}
	return k, nil
}

// ListByUser returns the user's keys, soft-deleted ones excluded.
func (r *PostgresAPIKeys) ListByUser(ctx context.Context, userUUID string) ([]model.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE user_uuid = $1 AND is_deleted = FALSE
		 ORDER BY registered_at`,
		userUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list api keys: %v", auth.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.UUID, &k.Key, &k.Name, &k.Domains, &k.RegisteredAt,
			&k.IsDeleted, &k.DeletedAt, &k.UserUUID); err != nil {
			return nil, fmt.Errorf("%w: scan api key: %v", auth.ErrStoreUnavailable, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list api keys: %v", auth.ErrStoreUnavailable, err)
	}
	return keys, nil
}

func (r *PostgresAPIKeys) Update(ctx context.Context, key *model.APIKey) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET name = $2, domains = $3 WHERE uuid = $1`,
		key.UUID, key.Name, key.Domains,
	)
	if err != nil {
		return fmt.Errorf("%w: update api key: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresAPIKeys) MarkDeleted(ctx context.Context, keyUUID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_deleted = TRUE, deleted_at = $2 WHERE uuid = $1`,
		keyUUID, at,
	)
	if err != nil {
		return fmt.Errorf("%w: mark api key deleted: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

// PostgresFineTunings stores fine-tuning bookkeeping rows.
type PostgresFineTunings struct {
	db *sql.DB
}

func NewPostgresFineTunings(db *sql.DB) *PostgresFineTunings {
	return &PostgresFineTunings{db: db}
}

func (r *PostgresFineTunings) FindByAPIKeyUUID(ctx context.Context, apiKeyUUID string) (*model.FineTuning, error) {
	ft := &model.FineTuning{}
	err := r.db.QueryRowContext(ctx,
		`SELECT uuid, training_file_uuid, job_uuid, tuned, last_file_upload, last_tuned, api_key_uuid
		 FROM fine_tuning WHERE api_key_uuid = $1`,
		apiKeyUUID,
	).Scan(&ft.UUID, &ft.TrainingFileUUID, &ft.JobUUID, &ft.Tuned, &ft.LastFileUpload, &ft.LastTuned, &ft.APIKeyUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find fine tuning: %v", auth.ErrStoreUnavailable, err)
	}
	return ft, nil
}

func (r *PostgresFineTunings) SetTrainingFile(ctx context.Context, ftUUID string, fileUUID *string, at *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE fine_tuning SET training_file_uuid = $2, last_file_upload = $3 WHERE uuid = $1`,
		ftUUID, fileUUID, at,
	)
	if err != nil {
		return fmt.Errorf("%w: set training file: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresFineTunings) SetJob(ctx context.Context, ftUUID, jobUUID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE fine_tuning SET job_uuid = $2, tuned = TRUE, last_tuned = $3 WHERE uuid = $1`,
		ftUUID, jobUUID, at,
	)
	if err != nil {
		return fmt.Errorf("%w: set fine tuning job: %v", auth.ErrStoreUnavailable, err)
	}
	return nil
}
