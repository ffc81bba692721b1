package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/logger"
	"github.com/modelforge/modelforge/internal/mailtoken"
	"github.com/modelforge/modelforge/internal/model"
	"github.com/modelforge/modelforge/internal/store"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // recipients
	fail bool
}

func (m *fakeMailer) SendHTML(_, _, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, recipient)
	return nil
}

type fakeFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	next  int
	fail  bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string][]byte)}
}

func (f *fakeFiles) Upload(_ context.Context, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("provider down")
	}
	f.next++
	id := fmt.Sprintf("file-%d", f.next)
	f.files[id] = data
	return id, nil
}

func (f *fakeFiles) Content(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (f *fakeFiles) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider down")
	}
	delete(f.files, fileID)
	return nil
}

type env struct {
	t          *testing.T
	router     http.Handler
	memory     *store.Memory
	issuer     *auth.TokenIssuer
	service    *auth.Service
	mailTokens *mailtoken.Issuer
	mr         *miniredis.Miniredis
	mailer     *fakeMailer
	files      *fakeFiles
}

func newEnv(t *testing.T, transport auth.Transport) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 720 * time.Hour,
	})
	require.NoError(t, err)

	memory := store.NewMemory()
	blocklist := auth.NewBlocklist(rdb)
	gate := auth.NewGate(issuer, blocklist, memory, transport)
	service := auth.NewService(memory, issuer, blocklist, nil)
	guard := captcha.NewGuard(captcha.NewStore(rdb, 5*time.Minute))

	mailTokens, err := mailtoken.NewIssuer(rdb, []byte("mail-secret"), time.Hour)
	require.NoError(t, err)

	mailer := &fakeMailer{}
	files := newFakeFiles()

	router := NewRouter(&RouterDeps{
		Logger:      logger.Setup(io.Discard),
		Gate:        gate,
		AuthService: service,
		Accounts:    memory,
		APIKeys:     memory.APIKeys(),
		FineTunings: memory.FineTunings(),
		Captcha:     guard,
		MailTokens:  mailTokens,
		Mailer:      mailer,
		Provider:    files,

		BaseURL:      "http://localhost:8080",
		CookieSecure: false,
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   720 * time.Hour,

		CORSAllowedOrigin: "http://localhost:3000",
	})

	return &env{
		t:          t,
		router:     router,
		memory:     memory,
		issuer:     issuer,
		service:    service,
		mailTokens: mailTokens,
		mr:         mr,
		mailer:     mailer,
		files:      files,
	}
}

// seedUser creates a verified account and returns its uuid.
func (e *env) seedUser(email, password string) string {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)

	account := &model.Account{
		UUID:          "acc-" + email,
		FirstName:     "Alice",
		LastName:      "Smith",
		Email:         email,
		EmailVerified: true,
		PasswordHash:  hash,
		CreatedAt:     time.Now(),
	}
	require.NoError(e.t, e.memory.Create(context.Background(), account))
	return account.UUID
}

// freshToken mints a fresh access token for the account.
func (e *env) freshToken(accountID string) string {
	e.t.Helper()
	token, _, err := e.issuer.IssueAccess(accountID, true, "")
	require.NoError(e.t, err)
	return token
}

// staleToken mints a non-fresh access token for the account.
func (e *env) staleToken(accountID string) string {
	e.t.Helper()
	token, _, err := e.issuer.IssueAccess(accountID, false, "")
	require.NoError(e.t, err)
	return token
}

// do runs one request through the router. bearer may be empty.
func (e *env) do(method, target, bearer string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// storedCaptchaAnswer reads the live challenge answer for an account+purpose
// straight out of miniredis.
func (e *env) storedCaptchaAnswer(accountID, purpose string) string {
	e.t.Helper()
	val, err := e.mr.Get(accountID + "-" + purpose + "-captcha-answer")
	require.NoError(e.t, err)
	return val
}
