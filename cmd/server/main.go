package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/captcha"
	"github.com/modelforge/modelforge/internal/config"
	"github.com/modelforge/modelforge/internal/database"
	"github.com/modelforge/modelforge/internal/handler"
	"github.com/modelforge/modelforge/internal/logger"
	"github.com/modelforge/modelforge/internal/mail"
	"github.com/modelforge/modelforge/internal/mailtoken"
	"github.com/modelforge/modelforge/internal/metrics"
	"github.com/modelforge/modelforge/internal/middleware"
	"github.com/modelforge/modelforge/internal/provider"
	"github.com/modelforge/modelforge/internal/store"
)

func main() {
	logger.SetupDefault(os.Stdout)

	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	accounts := store.NewPostgresAccounts(db)
	apiKeys := store.NewPostgresAPIKeys(db)
	fineTunings := store.NewPostgresFineTunings(db)

	blocklist := auth.NewBlocklist(rdb)
	gate := auth.NewGate(issuer, blocklist, accounts, cfg.TokenTransport)
	authService := auth.NewService(accounts, issuer, blocklist, collector)

	captchaGuard := captcha.NewGuard(captcha.NewStore(rdb, cfg.CaptchaTTL))

	mailTokens, err := mailtoken.NewIssuer(rdb, []byte(cfg.MailSecret), cfg.MailTokenTTL)
	if err != nil {
		return err
	}
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})

	files := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:      slog.Default(),
		Gate:        gate,
		AuthService: authService,
		Accounts:    accounts,
		APIKeys:     apiKeys,
		FineTunings: fineTunings,
		Captcha:     captchaGuard,
		MailTokens:  mailTokens,
		Mailer:      mailer,
		Provider:    files,

		Metrics:  collector,
		Gatherer: registry,

		BaseURL:      cfg.BaseURL,
		CookieSecure: cfg.CookieSecure,
		AccessTTL:    cfg.AccessTTL,
		RefreshTTL:   cfg.RefreshTTL,

		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
