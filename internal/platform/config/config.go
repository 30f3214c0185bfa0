// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Enumerations

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// GoogleProviderName is the route segment for Google sign-in.
const GoogleProviderName = "google"

// minSessionSecretLength is the shortest accepted HS256 key.
const minSessionSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the secrets server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// BaseURL is the public origin. Provider redirect URLs left unset are
	// derived from it.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Credential store
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the PostgreSQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Session store
	SessionStore string        `env:"SESSION_STORE" envDefault:"redis"`
	RedisURL     string        `env:"REDIS_URL"`
	SessionTTL   time.Duration `env:"SESSION_TTL"   envDefault:"24h"`

	// SessionSecret signs the short-lived delegated login flow cookie.
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	// PasswordHasher selects the algorithm for new digests.
	PasswordHasher string `env:"PASSWORD_HASHER" envDefault:"bcrypt"`

	// Google sign-in. The provider is registered only when all three are set;
	// the redirect URL defaults to BaseURL + /auth/google/callback.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Any other OpenID Connect issuer (Keycloak, Auth0, ...).
	OIDCProviderName string `env:"OIDC_PROVIDER_NAME" envDefault:"oidc"`
	OIDCIssuerURL    string `env:"OIDC_ISSUER_URL"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Fill provider redirect URLs from BASE_URL before cross-field checks.
	if cfg.GoogleClientID != "" && cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = cfg.CallbackURL(GoogleProviderName)
	}
	if cfg.OIDCIssuerURL != "" && cfg.OIDCRedirectURL == "" {
		cfg.OIDCRedirectURL = cfg.CallbackURL(cfg.OIDCProviderName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CallbackURL returns the public callback address for the named provider.
func (c *Config) CallbackURL(provider string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/" + provider + "/callback"
}

// Validate enforces the cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if base, err := url.Parse(c.BaseURL); err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL))
	}

	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver))
	}

	switch c.SessionStore {
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	case SessionStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreRedis, SessionStoreMemory, c.SessionStore))
	}

	switch c.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be %q or %q, got %q", HasherBcrypt, HasherArgon2id, c.PasswordHasher))
	}

	if len(c.SessionSecret) < minSessionSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if partial(c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL) {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL must be set together"))
	}

	if partial(c.OIDCIssuerURL, c.OIDCClientID, c.OIDCClientSecret, c.OIDCRedirectURL) {
		errs = append(errs, errors.New("OIDC_ISSUER_URL, OIDC_CLIENT_ID, OIDC_CLIENT_SECRET and OIDC_REDIRECT_URL must be set together"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// OIDCEnabled reports whether the generic OpenID Connect provider is fully configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuerURL != "" && c.OIDCClientID != "" && c.OIDCClientSecret != "" && c.OIDCRedirectURL != ""
}

// partial reports whether some but not all values are set.
func partial(values ...string) bool {
	set := 0
	for _, v := range values {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < len(values)
}
