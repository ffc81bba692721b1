package mailtoken

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Issuer) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	issuer, err := NewIssuer(rdb, []byte("mail-secret"), ttl)
	require.NoError(t, err)
	return mr, issuer
}

func TestGenerateAndConfirm(t *testing.T) {
	_, issuer := newTestIssuer(t, time.Hour)

	token, err := issuer.Generate(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := issuer.Confirm(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestGenerateDedupsOutstandingToken(t *testing.T) {
	mr, issuer := newTestIssuer(t, time.Hour)
	ctx := context.Background()

	_, err := issuer.Generate(ctx, "a@b.com")
	require.NoError(t, err)

	_, err = issuer.Generate(ctx, "a@b.com")
	assert.ErrorIs(t, err, ErrTokenExists)

	// Another address is unaffected.
	_, err = issuer.Generate(ctx, "c@d.com")
	assert.NoError(t, err)

	// After the dedup window lapses a new token can be issued.
	mr.FastForward(time.Hour + time.Second)
	_, err = issuer.Generate(ctx, "a@b.com")
	assert.NoError(t, err)
}

func TestConfirmRejectsExpiredToken(t *testing.T) {
	_, issuer := newTestIssuer(t, time.Millisecond)

	token, err := issuer.Generate(context.Background(), "a@b.com")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = issuer.Confirm(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfirmRejectsForeignSignature(t *testing.T) {
	mr, issuer := newTestIssuer(t, time.Hour)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	other, err := NewIssuer(rdb, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	token, err := other.Generate(context.Background(), "x@y.com")
	require.NoError(t, err)

	_, err = issuer.Confirm(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfirmRejectsGarbage(t *testing.T) {
	_, issuer := newTestIssuer(t, time.Hour)

	_, err := issuer.Confirm("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
