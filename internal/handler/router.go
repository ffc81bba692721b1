package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/mail"
	"github.com/modelforge/modelforge/internal/mailtoken"
	"github.com/modelforge/modelforge/internal/metrics"
	"github.com/modelforge/modelforge/internal/middleware"
	"github.com/modelforge/modelforge/internal/provider"
	"github.com/modelforge/modelforge/internal/store"
)

// RouterDeps bundles everything NewRouter needs.
type RouterDeps struct {
	Logger      *slog.Logger
	Gate        *auth.Gate
	AuthService *auth.Service
	Accounts    store.Accounts
	APIKeys     store.APIKeys
	FineTunings store.FineTunings
	Captcha     *captcha.Guard
	MailTokens  *mailtoken.Issuer
	Mailer      mail.Mailer
	Provider    provider.Files

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	BaseURL      string
	CookieSecure bool
	AccessTTL    time.Duration
	RefreshTTL   time.Duration

	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
}

// NewRouter builds the full route tree with the middleware chain
// CORS → request log → recovery → rate limit. /healthz and /metrics sit
// outside the rate limit.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	var statusObserver middleware.StatusObserver
	var captchaMetrics CaptchaMetrics
	if deps.Metrics != nil {
		statusObserver = deps.Metrics
		captchaMetrics = deps.Metrics
	}

	r.Use(middleware.NewCORS(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLogging(deps.Logger, statusObserver))
	r.Use(middleware.NewRecovery())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	cookies := cookieWriter{
		secure:     deps.CookieSecure,
		accessTTL:  deps.AccessTTL,
		refreshTTL: deps.RefreshTTL,
	}

	authH := NewAuthHandler(deps.AuthService, deps.Gate, cookies)
	accountH := NewAccountHandler(deps.Gate, deps.Accounts, deps.Captcha, captchaMetrics)
	confirmH := NewConfirmEmailHandler(deps.Accounts, deps.MailTokens, deps.Mailer, deps.BaseURL)
	apiKeyH := NewAPIKeyHandler(deps.Gate, deps.APIKeys, deps.Captcha, captchaMetrics)
	fineTuningH := NewFineTuningHandler(deps.Gate, deps.FineTunings)
	trainingFileH := NewTrainingFileHandler(deps.Gate, deps.FineTunings, deps.Provider)

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Route("/api", func(r chi.Router) {
			r.Handle("/auth", authH)
			r.Handle("/account", accountH)
			r.Handle("/confirm_email", confirmH)
			r.Handle("/api_key", apiKeyH)
			r.Handle("/fine_tuning", fineTuningH)
			r.Handle("/training_file", trainingFileH)
		})
	})

	return r
}
