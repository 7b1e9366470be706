package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Email domain policies for tokens whose email is outside AUTH_EMAIL_DOMAIN.
const (
	EmailDomainPolicyWarn   = "warn"
	EmailDomainPolicyReject = "reject"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	ServerDebugMode  bool
	WorkerDebugMode  bool
	FrontendURL      string
	EnableHSTS       bool
	RedisURL         string
	RateLimitDefault string
	RabbitMQURL      string
	RabbitMQPrefetch int
	OTELEnabled      bool
	OTELEndpoint     string

	Auth  AuthConfig
	Admin AdminConfig
}

// AuthConfig holds the identity provider settings and the trust decisions the
// token verifier applies.
type AuthConfig struct {
	Domain      string
	ClientID    string
	Audience    string
	RedirectURI string
	JWKSURL     string

	VerifyAudience    bool
	AllowedAlgorithms []string
	EmailDomain       string
	EmailDomainPolicy string
	ClockSkew         time.Duration

	JWKSCacheTTL           time.Duration
	JWKSMinRefreshInterval time.Duration
}

// Issuer returns the issuer claim the provider puts into its tokens.
func (a AuthConfig) Issuer() string {
	return "https://" + a.Domain + "/"
}

// AdminConfig holds the labels shown on the reporting dashboard.
type AdminConfig struct {
	SiteHeader string
	SiteTitle  string
	IndexTitle string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")
	domain := strings.TrimSuffix(strings.TrimPrefix(getEnv("AUTH0_DOMAIN", ""), "https://"), "/")

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8000"),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		FrontendURL:      frontendURL,
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "20-S"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Auth: AuthConfig{
			Domain:                 domain,
			ClientID:               getEnv("AUTH0_CLIENT_ID", ""),
			Audience:               getEnv("AUTH0_AUDIENCE", ""),
			RedirectURI:            getEnv("AUTH0_REDIRECT_URI", strings.TrimSuffix(frontendURL, "/")+"/callback"),
			JWKSURL:                getEnv("AUTH_JWKS_URL", ""),
			VerifyAudience:         getEnvBool("AUTH_VERIFY_AUDIENCE", true),
			AllowedAlgorithms:      getEnvList("AUTH_ALLOWED_ALGORITHMS", []string{"RS256"}),
			EmailDomain:            strings.ToLower(strings.TrimPrefix(getEnv("AUTH_EMAIL_DOMAIN", ""), "@")),
			EmailDomainPolicy:      strings.ToLower(getEnv("AUTH_EMAIL_DOMAIN_POLICY", EmailDomainPolicyWarn)),
			ClockSkew:              getEnvDuration("AUTH_CLOCK_SKEW", 30*time.Second),
			JWKSCacheTTL:           getEnvDuration("JWKS_CACHE_TTL", 15*time.Minute),
			JWKSMinRefreshInterval: getEnvDuration("JWKS_MIN_REFRESH_INTERVAL", 30*time.Second),
		},
		Admin: AdminConfig{
			SiteHeader: getEnv("ADMIN_SITE_HEADER", "Panel de Administración - checkAuto"),
			SiteTitle:  getEnv("ADMIN_SITE_TITLE", "checkAuto Admin"),
			IndexTitle: getEnv("ADMIN_INDEX_TITLE", "Dashboard"),
		},
	}

	if cfg.Auth.JWKSURL == "" && cfg.Auth.Domain != "" {
		cfg.Auth.JWKSURL = "https://" + cfg.Auth.Domain + "/.well-known/jwks.json"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth.VerifyAudience && c.Auth.Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH_VERIFY_AUDIENCE is enabled")
	}
	switch c.Auth.EmailDomainPolicy {
	case EmailDomainPolicyWarn, EmailDomainPolicyReject:
	default:
		return fmt.Errorf("AUTH_EMAIL_DOMAIN_POLICY must be %q or %q, got %q",
			EmailDomainPolicyWarn, EmailDomainPolicyReject, c.Auth.EmailDomainPolicy)
	}
	if len(c.Auth.AllowedAlgorithms) == 0 {
		return fmt.Errorf("AUTH_ALLOWED_ALGORITHMS cannot be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
