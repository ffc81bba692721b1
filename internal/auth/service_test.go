package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelforge/modelforge/internal/model"
)

func seedAccount(t *testing.T, store *fakeAccounts, uuid, email, password string, verified bool) {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), &model.Account{
		UUID:          uuid,
		FirstName:     "Alice",
		LastName:      "Smith",
		Email:         email,
		EmailVerified: verified,
		PasswordHash:  hash,
	}))
}

func newTestService(t *testing.T, store *fakeAccounts) (*Service, *TokenIssuer, *Blocklist) {
	t.Helper()
	issuer := newTestIssuer(t)
	_, rdb := newTestRedis(t)
	bl := NewBlocklist(rdb)
	return NewService(store, issuer, bl, nil), issuer, bl
}

func TestLoginIssuesLinkedPair(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", true)
	svc, issuer, _ := newTestService(t, store)

	pair, err := svc.Login(context.Background(), "a@b.com", "Abcdef1@")
	require.NoError(t, err)

	access, err := issuer.Parse(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := issuer.Parse(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, TypeAccess, access.Type)
	assert.True(t, access.Fresh)
	assert.Equal(t, refresh.ID, access.RefreshJTI)
	assert.Equal(t, TypeRefresh, refresh.Type)
	assert.False(t, refresh.Fresh)
	assert.Equal(t, "acc-1", access.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", true)
	svc, _, _ := newTestService(t, store)

	_, err := svc.Login(context.Background(), "a@b.com", "WrongPass1@")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email collapses into the same error.
	_, err = svc.Login(context.Background(), "nobody@b.com", "Abcdef1@")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAppliesAccountStateChecks(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", false)
	svc, _, _ := newTestService(t, store)

	_, err := svc.Login(context.Background(), "a@b.com", "Abcdef1@")
	assert.ErrorIs(t, err, ErrEmailUnverified)

	store.accounts["acc-1"].EmailVerified = true
	store.accounts["acc-1"].IsDeleted = true
	_, err = svc.Login(context.Background(), "a@b.com", "Abcdef1@")
	assert.ErrorIs(t, err, ErrAccountDeleted)
}

func TestLoginClearsExpiredBlock(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", true)
	reason := "abuse"
	until := time.Now().Add(-time.Minute)
	store.accounts["acc-1"].IsBlocked = true
	store.accounts["acc-1"].BlockedReason = &reason
	store.accounts["acc-1"].BlockedUntil = &until
	svc, _, _ := newTestService(t, store)

	_, err := svc.Login(context.Background(), "a@b.com", "Abcdef1@")
	require.NoError(t, err)
	assert.False(t, store.accounts["acc-1"].IsBlocked)
}

func TestRegister(t *testing.T) {
	store := newFakeAccounts()
	svc, _, _ := newTestService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "Smith", "a@b.com", "Abcdef1@"))

	created, err := store.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.False(t, created.EmailVerified, "new accounts start unverified")
	assert.NotEqual(t, "Abcdef1@", created.PasswordHash)
	assert.True(t, VerifyPassword(created.PasswordHash, "Abcdef1@"))

	assert.ErrorIs(t, svc.Register(ctx, "Alice", "Smith", "a@b.com", "Abcdef1@"), ErrEmailExists)
}

func TestRefreshMintsNonFreshAccess(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", true)
	svc, issuer, _ := newTestService(t, store)

	_, refreshClaims, err := issuer.IssueRefresh("acc-1")
	require.NoError(t, err)

	tokenStr, err := svc.Refresh(context.Background(), refreshClaims)
	require.NoError(t, err)

	claims, err := issuer.Parse(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.False(t, claims.Fresh)
	assert.Equal(t, refreshClaims.ID, claims.RefreshJTI)
}

func TestLogoutRevokesBothHalves(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "acc-1", "a@b.com", "Abcdef1@", true)
	svc, issuer, bl := newTestService(t, store)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "a@b.com", "Abcdef1@")
	require.NoError(t, err)
	accessClaims, err := issuer.Parse(pair.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := issuer.Parse(pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, accessClaims))

	revoked, err := bl.IsRevoked(ctx, accessClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, refreshClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked, "linked refresh token dies with the access token")
}

func TestLogoutWithRefreshTokenRevokesItself(t *testing.T) {
	store := newFakeAccounts()
	svc, issuer, bl := newTestService(t, store)
	ctx := context.Background()

	_, refreshClaims, err := issuer.IssueRefresh("acc-1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refreshClaims))

	revoked, err := bl.IsRevoked(ctx, refreshClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
