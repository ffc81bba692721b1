package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modelforge/modelforge/internal/model"
)

// Memory is an in-process implementation of the three store interfaces,
// used by tests in place of PostgreSQL.
type Memory struct {
	mu          sync.Mutex
	accounts    map[string]*model.Account   // by uuid
	apiKeys     map[string]*model.APIKey    // by uuid
	fineTunings map[string]*model.FineTuning // by uuid
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[string]*model.Account),
		apiKeys:     make(map[string]*model.APIKey),
		fineTunings: make(map[string]*model.FineTuning),
	}
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByUUID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) Create(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.UUID] = &cp
	return nil
}

func (m *Memory) ClearBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.IsBlocked = false
		a.BlockedReason = nil
		a.BlockedUntil = nil
	}
	return nil
}

func (m *Memory) MarkVerified(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			a.EmailVerified = true
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) MarkDeleted(_ context.Context, id, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.IsDeleted = true
		a.RemovalReason = &reason
		a.DeletedAt = &at
	}
	return nil
}

func (m *Memory) Update(_ context.Context, id string, upd model.AccountUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	if upd.FirstName != nil {
		a.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		a.LastName = *upd.LastName
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	return nil
}

// MemoryAPIKeys exposes the Memory store through the APIKeys interface.
// The same Memory value backs all three interfaces; these views keep the
// method sets from colliding in tests that assert on interface satisfaction.
type MemoryAPIKeys struct{ *Memory }

// MemoryFineTunings exposes the Memory store through the FineTunings interface.
type MemoryFineTunings struct{ *Memory }

func (m *Memory) APIKeys() MemoryAPIKeys         { return MemoryAPIKeys{m} }
func (m *Memory) FineTunings() MemoryFineTunings { return MemoryFineTunings{m} }

func (m MemoryAPIKeys) Create(_ context.Context, key *model.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *key
	m.apiKeys[key.UUID] = &cp
	ft := &model.FineTuning{UUID: uuid.NewString(), APIKeyUUID: key.UUID}
	m.fineTunings[ft.UUID] = ft
	return nil
}

func (m MemoryAPIKeys) FindByUUID(_ context.Context, id string) (*model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.apiKeys[id]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (m MemoryAPIKeys) ListByUser(_ context.Context, userUUID string) ([]model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []model.APIKey
	for _, k := range m.apiKeys {
		if k.UserUUID == userUUID && !k.IsDeleted {
			keys = append(keys, *k)
		}
	}
	return keys, nil
}

func (m MemoryAPIKeys) Update(_ context.Context, key *model.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.apiKeys[key.UUID]; ok {
		k.Name = key.Name
		k.Domains = key.Domains
	}
	return nil
}

func (m MemoryAPIKeys) MarkDeleted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.apiKeys[id]; ok {
		k.IsDeleted = true
		k.DeletedAt = &at
	}
	return nil
}

func (m MemoryFineTunings) FindByAPIKeyUUID(_ context.Context, apiKeyUUID string) (*model.FineTuning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ft := range m.fineTunings {
		if ft.APIKeyUUID == apiKeyUUID {
			cp := *ft
			return &cp, nil
		}
	}
	return nil, nil
}

func (m MemoryFineTunings) SetTrainingFile(_ context.Context, id string, fileUUID *string, at *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ft, ok := m.fineTunings[id]; ok {
		ft.TrainingFileUUID = fileUUID
		ft.LastFileUpload = at
	}
	return nil
}

func (m MemoryFineTunings) SetJob(_ context.Context, id, jobUUID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ft, ok := m.fineTunings[id]; ok {
		ft.JobUUID = &jobUUID
		ft.Tuned = true
		ft.LastTuned = &at
	}
	return nil
}

var (
	_ Accounts    = (*Memory)(nil)
	_ APIKeys     = MemoryAPIKeys{}
	_ FineTunings = MemoryFineTunings{}
)
