// Package mailtoken issues and verifies email-confirmation tokens. Tokens
// are signed with a secret separate from the session-token secret and expire
// on their own schedule; a Redis marker per email prevents issuing a second
// token while one is still outstanding.
package mailtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/modelforge/modelforge/internal/auth"
)

var (
	// ErrTokenExists signals that a confirmation token for this email is
	// still live; callers should wait for it to expire.
	ErrTokenExists = errors.New("a confirmation token already exists for this email")
	// ErrTokenInvalid covers malformed, mis-signed, and expired tokens.
	ErrTokenInvalid = errors.New("confirmation token is incorrect or expired")
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer mints confirmation tokens and tracks the per-email dedup marker.
type Issuer struct {
	rdb    redis.UniversalClient
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an issuer. ttl is both the token lifetime and the dedup
// window.
func NewIssuer(rdb redis.UniversalClient, secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("mail token issuer requires a signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("mail token ttl must be positive")
	}
	return &Issuer{rdb: rdb, secret: secret, ttl: ttl}, nil
}

func dedupKey(email string) string {
	return email + "-confirmation-token"
}

// Generate returns a signed token embedding the email, or ErrTokenExists
// when one was already issued inside the dedup window. The SetNX on the
// marker is the only serialization the flow needs.
func (i *Issuer) Generate(ctx context.Context, email string) (string, error) {
	set, err := i.rdb.SetNX(ctx, dedupKey(email), time.Now().Format(time.RFC3339), i.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	if !set {
		return "", ErrTokenExists
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return token.SignedString(i.secret)
}

// Confirm verifies the token and returns the embedded email address.
func (i *Issuer) Confirm(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return "", ErrTokenInvalid
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Email == "" {
		return "", ErrTokenInvalid
	}
	return c.Email, nil
}
