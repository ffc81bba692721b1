package model

import "time"

// APIKey is an issued API key. Keys are soft-deleted; a deleted key stays in
// storage but is excluded from listings.
type APIKey struct {
	UUID         string
	Key          string
	Name         *string
	Domains      *string
	RegisteredAt time.Time
	IsDeleted    bool
	DeletedAt    *time.Time
	UserUUID     string
}

// FineTuning is the bookkeeping row paired 1:1 with an API key. The file and
// job identifiers are opaque handles owned by the AI provider.
type FineTuning struct {
	UUID             string
	TrainingFileUUID *string
	JobUUID          *string
	Tuned            bool
	LastFileUpload   *time.Time
	LastTuned        *time.Time
	APIKeyUUID       string
}
