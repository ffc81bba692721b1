// Package auth implements the token lifecycle core: issuance, validation,
// revocation, account-state gating, and the login/refresh/logout flows.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the claim set minted for both token types. Tokens are bearer
// credentials: signature, expiry, and an unrevoked jti make them valid.
type Claims struct {
	// Type discriminates access from refresh tokens.
	Type string `json:"typ"`
	// Fresh is true only for access tokens issued directly from a password
	// login. Refresh tokens are non-fresh by definition.
	Fresh bool `json:"fresh"`
	// RefreshJTI links an access token to the refresh token minted in the
	// same login, so revoking one can cascade to the other.
	RefreshJTI string `json:"refresh_jti,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig configures the issuer. Access and refresh lifetimes are
// independent; both tokens are signed with the same server secret so any
// validator holding the secret can verify without sharing process memory.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer mints and parses HS256-signed tokens.
type TokenIssuer struct {
	config TokenConfig
}

// NewTokenIssuer validates the configuration and returns an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token issuer requires a signing secret")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid token TTL configuration")
	}
	return &TokenIssuer{config: cfg}, nil
}

// IssueAccess mints an access token for the account. fresh marks tokens
// created directly from a password login; refreshJTI back-references the
// refresh token minted alongside, and is empty for refresh-derived tokens
// only when the caller has nothing to link.
func (t *TokenIssuer) IssueAccess(accountID string, fresh bool, refreshJTI string) (string, *Claims, error) {
	return t.issue(TypeAccess, accountID, fresh, refreshJTI, t.config.AccessTTL)
}

// IssueRefresh mints a refresh token. Refresh tokens are never fresh.
func (t *TokenIssuer) IssueRefresh(accountID string) (string, *Claims, error) {
	return t.issue(TypeRefresh, accountID, false, "", t.config.RefreshTTL)
}

func (t *TokenIssuer) issue(typ, accountID string, fresh bool, refreshJTI string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Type:       typ,
		Fresh:      fresh,
		RefreshJTI: refreshJTI,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry and returns the decoded claims.
// Any parse or verification failure maps to ErrTokenInvalid.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.config.Secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// RemainingTTL returns how long a revocation entry for these claims must
// live: the time until the token's own expiry, clamped to the configured
// lifetime for its type. Falls back to the configured lifetime when the
// expiry claim is unexpectedly absent.
func (t *TokenIssuer) RemainingTTL(claims *Claims) time.Duration {
	configured := t.config.AccessTTL
	if claims.Type == TypeRefresh {
		configured = t.config.RefreshTTL
	}
	if claims.ExpiresAt == nil {
		return configured
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		// Already expired; a minimal entry keeps the revocation observable
		// for in-flight requests racing the expiry.
		return time.Second
	}
	if remaining > configured {
		return configured
	}
	return remaining
}

// RefreshTTLFor returns the blocklist TTL for a linked refresh jti revoked
// through an access token, where only the refresh token's configured
// lifetime is known.
func (t *TokenIssuer) RefreshTTLFor() time.Duration {
	return t.config.RefreshTTL
}
