// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
)

// Config holds the whole service configuration. It is read once at startup
// and treated as immutable afterwards.
type Config struct {
	// Server
	ServerPort string
	BaseURL    string

	// Database
	DatabaseURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tokens
	JWTSecret      string
	MailSecret     string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	MailTokenTTL   time.Duration
	TokenTransport auth.Transport
	CookieSecure   bool

	// Captcha
	CaptchaTTL time.Duration

	// SMTP
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// AI provider
	ProviderAPIKey  string
	ProviderBaseURL string

	// Rate limit (requests per minute per client)
	RateLimit int

	// CORS
	CORSAllowedOrigin string
}

// Load reads the configuration from the environment. Every required variable
// that is missing is reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.RedisAddr = required("REDIS_ADDR")
	cfg.JWTSecret = required("JWT_SECRET_KEY")
	cfg.MailSecret = required("MAIL_SECRET_KEY")
	cfg.ProviderAPIKey = required("PROVIDER_API_KEY")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.AccessTTL = getEnvDuration("JWT_ACCESS_TOKEN_EXPIRES", 15*time.Minute)
	cfg.RefreshTTL = getEnvDuration("JWT_REFRESH_TOKEN_EXPIRES", 720*time.Hour)
	cfg.MailTokenTTL = getEnvDuration("MAIL_TOKEN_EXPIRES", 24*time.Hour)
	cfg.CaptchaTTL = getEnvDuration("CAPTCHA_EXPIRES", 5*time.Minute)

	switch transport := getEnvString("JWT_TOKEN_LOCATION", "header"); transport {
	case string(auth.TransportHeader):
		cfg.TokenTransport = auth.TransportHeader
	case string(auth.TransportCookie):
		cfg.TokenTransport = auth.TransportCookie
	default:
		return nil, fmt.Errorf("JWT_TOKEN_LOCATION must be %q or %q, got %q",
			auth.TransportHeader, auth.TransportCookie, transport)
	}
	cfg.CookieSecure = getEnvBool("JWT_COOKIE_SECURE", false)

	cfg.SMTPAddr = getEnvString("SMTP_ADDR", "localhost:587")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", "no-reply@modelforge.local")
	cfg.SMTPUsername = getEnvString("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")

	cfg.ProviderBaseURL = getEnvString("PROVIDER_BASE_URL", "https://api.openai.com/v1")

	cfg.RateLimit = getEnvInt("RATE_LIMIT", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
