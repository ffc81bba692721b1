package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelforge/modelforge/internal/auth"
)

func TestProfile(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	rec := e.do(http.MethodGet, "/api/account", e.freshToken(uuid))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, uuid, body["uuid"])
	assert.Equal(t, "Alice", body["first_name"])
	assert.Equal(t, "Smith", body["last_name"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, true, body["email_verified"])
}

func TestProfileWithoutToken(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)

	rec := e.do(http.MethodGet, "/api/account", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountUpdate(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	q := url.Values{"first_name": {"Alina"}, "last_name": {"Jones"}}
	rec := e.do(http.MethodPatch, "/api/account?"+q.Encode(), e.freshToken(uuid))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account info updated!", decodeBody(t, rec)["message"])

	stored, err := e.memory.FindByUUID(context.Background(), uuid)
	require.NoError(t, err)
	assert.Equal(t, "Alina", stored.FirstName)
	assert.Equal(t, "Jones", stored.LastName)
	assert.Equal(t, "alice@example.com", stored.Email, "untouched field keeps its value")
}

func TestAccountUpdateRequiresFreshToken(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	rec := e.do(http.MethodPatch, "/api/account?first_name=Alina", e.staleToken(uuid))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountUpdateRejectsBadOptional(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	rec := e.do(http.MethodPatch, "/api/account?email=not-an-email", e.freshToken(uuid))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect optional argument: email", decodeBody(t, rec)["message"])
}

func TestAccountDeleteIssuesChallenge(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	rec := e.do(http.MethodDelete, "/api/account", e.freshToken(uuid))
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["math_captcha"])
	assert.NotEmpty(t, body["timestamp"])

	// The answer lives server-side only.
	assert.NotEmpty(t, e.storedCaptchaAnswer(uuid, purposeDeleteAccount))
}

// Full account lifecycle: registration, verification gating, login, and the
// captcha-guarded delete with its failure branches.
func TestAccountLifecycle(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	ctx := context.Background()

	register := url.Values{
		"first_name": {"Alice"},
		"last_name":  {"Smith"},
		"email":      {"a@b.com"},
		"password":   {"Abcdef1@"},
	}
	rec := e.do(http.MethodPost, "/api/auth?"+register.Encode(), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Login is refused until the address is verified.
	rec = e.do(http.MethodGet, loginURL("a@b.com", "Abcdef1@"), "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	found, err := e.memory.MarkVerified(ctx, "a@b.com")
	require.NoError(t, err)
	require.True(t, found)

	rec = e.do(http.MethodGet, loginURL("a@b.com", "Abcdef1@"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := decodeBody(t, rec)["access_token"].(string)

	account, err := e.memory.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)

	// First delete attempt only draws the challenge.
	rec = e.do(http.MethodDelete, "/api/account", access)
	require.Equal(t, http.StatusAccepted, rec.Code)
	answer := e.storedCaptchaAnswer(account.UUID, purposeDeleteAccount)

	// A wrong answer rotates the challenge and stays at 202.
	q := url.Values{"captcha_answer": {"999"}, "removal_reason": {"no longer needed"}}
	if answer == "999" {
		q.Set("captcha_answer", "998")
	}
	rec = e.do(http.MethodDelete, "/api/account?"+q.Encode(), access)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rotated := e.storedCaptchaAnswer(account.UUID, purposeDeleteAccount)
	assert.NotEqual(t, answer, rotated)

	// A correct answer without a removal reason fails fast and does not
	// burn the challenge.
	q = url.Values{"captcha_answer": {rotated}}
	rec = e.do(http.MethodDelete, "/api/account?"+q.Encode(), access)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, rotated, e.storedCaptchaAnswer(account.UUID, purposeDeleteAccount))

	// Correct answer plus a reason completes the deletion.
	q = url.Values{"captcha_answer": {rotated}, "removal_reason": {"no longer needed"}}
	rec = e.do(http.MethodDelete, "/api/account?"+q.Encode(), access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account deleted successfully!", decodeBody(t, rec)["message"])

	stored, err := e.memory.FindByUUID(ctx, account.UUID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	require.NotNil(t, stored.RemovalReason)
	assert.Equal(t, "no longer needed", *stored.RemovalReason)
	require.NotNil(t, stored.DeletedAt)

	// The deleted account can no longer authenticate.
	assert.Equal(t, http.StatusGone, e.do(http.MethodGet, "/api/account", access).Code)
	assert.Equal(t, http.StatusGone, e.do(http.MethodGet, loginURL("a@b.com", "Abcdef1@"), "").Code)
}

func TestAccountDeleteRejectsShortReason(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	rec := e.do(http.MethodDelete, "/api/account?removal_reason=nah", e.freshToken(uuid))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect optional argument: removal_reason", decodeBody(t, rec)["message"])
}
