package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/modelforge/modelforge/internal/model"
)

// Transport selects where tokens travel. Exactly one scheme is active per
// deployment; it is configuration, not per-request negotiation.
type Transport string

const (
	// TransportHeader reads bearer tokens from the Authorization header.
	TransportHeader Transport = "header"
	// TransportCookie reads tokens from dedicated cookies.
	TransportCookie Transport = "cookie"
)

// Cookie names used by the cookie transport.
const (
	AccessCookieName  = "access_token_cookie"
	RefreshCookieName = "refresh_token_cookie"
)

// AccountStore is the credential-store surface the auth core needs. The
// persistent user database stays an external collaborator behind it.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByUUID(ctx context.Context, uuid string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	// ClearBlock resets is_blocked, blocked_reason, and blocked_until.
	// Idempotent; concurrent clears of the same account are harmless.
	ClearBlock(ctx context.Context, uuid string) error
}

// GateOptions tune a single gate evaluation.
type GateOptions struct {
	// Optional admits requests without a token and skips the account-state
	// checks; a present token is still fully verified.
	Optional bool
	// Refresh requires a refresh token instead of an access token.
	Refresh bool
	// Fresh additionally requires the fresh claim (access tokens only).
	Fresh bool
	// SkipTypeCheck accepts either token type (logout accepts both halves
	// of a pair).
	SkipTypeCheck bool
	// SkipRevocationCheck bypasses the blocklist lookup.
	SkipRevocationCheck bool
}

// Identity is the successful gate outcome handed to downstream handlers.
// Account is nil for optional gates and for gates evaluated without a token.
type Identity struct {
	Claims  *Claims
	Account *model.Account
}

// Gate verifies a request's token and the owning account's state before a
// protected operation runs. Every failure is terminal for the request.
type Gate struct {
	tokens    *TokenIssuer
	blocklist *Blocklist
	accounts  AccountStore
	transport Transport
}

// NewGate builds a gate over the issuer, blocklist, and credential store.
func NewGate(tokens *TokenIssuer, blocklist *Blocklist, accounts AccountStore, transport Transport) *Gate {
	return &Gate{tokens: tokens, blocklist: blocklist, accounts: accounts, transport: transport}
}

// Transport returns the configured token transport.
func (g *Gate) Transport() Transport { return g.transport }

// Authenticate runs the validation state machine for one request:
// extract, verify signature+expiry, type, freshness, revocation, then
// account state. Ordering is significant: revocation precedes the account
// checks, and the account checks run only for non-optional gates.
func (g *Gate) Authenticate(r *http.Request, opts GateOptions) (*Identity, error) {
	tokenStr := g.extract(r, opts)
	if tokenStr == "" {
		if opts.Optional {
			return &Identity{}, nil
		}
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Parse(tokenStr)
	if err != nil {
		return nil, err
	}

	if !opts.SkipTypeCheck {
		required := TypeAccess
		if opts.Refresh {
			required = TypeRefresh
		}
		if claims.Type != required {
			return nil, ErrWrongTokenType
		}
	}

	if opts.Fresh && !claims.Fresh {
		return nil, ErrTokenNotFresh
	}

	if !opts.SkipRevocationCheck {
		revoked, err := g.blocklist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	if opts.Optional {
		return &Identity{Claims: claims}, nil
	}

	account, err := g.accounts.FindByUUID(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	if err := CheckAccountState(r.Context(), g.accounts, account, time.Now()); err != nil {
		return nil, err
	}

	return &Identity{Claims: claims, Account: account}, nil
}

// CheckAccountState enforces the verified/deleted/blocked ordering shared by
// the gate and the login flow. An expired block is cleared in place and
// persisted as a side effect of this read-path check; the request proceeds.
func CheckAccountState(ctx context.Context, store AccountStore, account *model.Account, now time.Time) error {
	if !account.EmailVerified {
		return ErrEmailUnverified
	}
	if account.IsDeleted {
		return ErrAccountDeleted
	}
	if account.IsBlocked {
		if account.BlockedUntil != nil && account.BlockedUntil.After(now) {
			reason := ""
			if account.BlockedReason != nil {
				reason = *account.BlockedReason
			}
			return &LockedError{Reason: reason, Until: *account.BlockedUntil}
		}
		if err := store.ClearBlock(ctx, account.UUID); err != nil {
			return err
		}
		account.IsBlocked = false
		account.BlockedReason = nil
		account.BlockedUntil = nil
	}
	return nil
}

func (g *Gate) extract(r *http.Request, opts GateOptions) string {
	switch g.transport {
	case TransportCookie:
		if opts.SkipTypeCheck {
			// Logout accepts either half of the pair; prefer the access
			// cookie when both are present.
			if v := cookieValue(r, AccessCookieName); v != "" {
				return v
			}
			return cookieValue(r, RefreshCookieName)
		}
		if opts.Refresh {
			return cookieValue(r, RefreshCookieName)
		}
		return cookieValue(r, AccessCookieName)
	default:
		return bearerToken(r.Header.Get("Authorization"))
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func bearerToken(value string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return ""
	}
	return value[len(prefix):]
}
