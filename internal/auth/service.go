package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modelforge/modelforge/internal/model"
)

// Metrics is the slice of the metrics surface the auth flows report to.
type Metrics interface {
	RecordLogin(success bool)
	RecordRefresh()
	RecordRevocations(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordLogin(bool)    {}
func (noopMetrics) RecordRefresh()      {}
func (noopMetrics) RecordRevocations(int) {}

// TokenPair is the login result: a fresh access token linked to the refresh
// token minted in the same call.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service composes issuer, blocklist, and credential store into the login,
// registration, refresh, and logout flows. Stateless aside from store calls;
// safe for concurrent use.
type Service struct {
	accounts  AccountStore
	tokens    *TokenIssuer
	blocklist *Blocklist
	metrics   Metrics
}

// NewService wires the auth flows. metrics may be nil.
func NewService(accounts AccountStore, tokens *TokenIssuer, blocklist *Blocklist, metrics Metrics) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{accounts: accounts, tokens: tokens, blocklist: blocklist, metrics: metrics}
}

// Login verifies the credentials, applies the account-state checks in order
// (verified, deleted, blocked), and on success issues a refresh token plus a
// fresh access token carrying the refresh token's jti.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !VerifyPassword(account.PasswordHash, password) {
		s.metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	if err := CheckAccountState(ctx, s.accounts, account, time.Now()); err != nil {
		s.metrics.RecordLogin(false)
		return nil, err
	}

	refreshToken, refreshClaims, err := s.tokens.IssueRefresh(account.UUID)
	if err != nil {
		return nil, err
	}
	accessToken, _, err := s.tokens.IssueAccess(account.UUID, true, refreshClaims.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(true)
	slog.Info("login succeeded", slog.String("account", account.UUID))
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Register creates an unverified account with a one-way password hash.
// Returns ErrEmailExists when the email is already taken.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) error {
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.accounts.Create(ctx, &model.Account{
		UUID:         uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
}

// Refresh issues a new non-fresh access token from validated refresh-token
// claims. The refresh token is not rotated; the new access token keeps the
// refresh jti link so a later logout can revoke both.
func (s *Service) Refresh(ctx context.Context, refreshClaims *Claims) (string, error) {
	accessToken, _, err := s.tokens.IssueAccess(refreshClaims.Subject, false, refreshClaims.ID)
	if err != nil {
		return "", err
	}
	s.metrics.RecordRefresh()
	return accessToken, nil
}

// Logout revokes the presented token's jti for its remaining lifetime. When
// the claims link a refresh token, that jti is revoked too, so both halves
// of the pair die together.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if err := s.blocklist.Revoke(ctx, claims.ID, claims.Type, s.tokens.RemainingTTL(claims)); err != nil {
		return err
	}
	revoked := 1
	if claims.RefreshJTI != "" && claims.RefreshJTI != claims.ID {
		if err := s.blocklist.Revoke(ctx, claims.RefreshJTI, TypeRefresh, s.tokens.RefreshTTLFor()); err != nil {
			return err
		}
		revoked++
	}
	s.metrics.RecordRevocations(revoked)
	return nil
}
