// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the secrets HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the credential store (PostgreSQL or SQLite) and migrate it.
//  4. Open the session store (Redis or in-process memory).
//  5. Build the password hasher, identity providers and flow signer.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/secrets/internal/api"
	"github.com/taibuivan/secrets/internal/platform/config"
	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/migration"
	pgstore "github.com/taibuivan/secrets/internal/platform/postgres"
	redisstore "github.com/taibuivan/secrets/internal/platform/redis"
	"github.com/taibuivan/secrets/internal/platform/respond"
	"github.com/taibuivan/secrets/internal/platform/sec"
	"github.com/taibuivan/secrets/internal/platform/sqlite"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/auth"
	"github.com/taibuivan/secrets/internal/users/auth/provider"
	"github.com/taibuivan/secrets/internal/users/auth/provider/google"
	"github.com/taibuivan/secrets/internal/users/auth/provider/oidc"
	"github.com/taibuivan/secrets/internal/users/secret"
	"github.com/taibuivan/secrets/internal/users/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("session_store", cfg.SessionStore),
		slog.String("password_hasher", cfg.PasswordHasher),
	)

	// Bound every dial so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// ── 3. Credential Store ───────────────────────────────────────────────
	credentials, closeCredentials, err := openCredentialStore(startupCtx, cfg, log)
	must(log, err, "open credential store")
	defer closeCredentials()

	// ── 4. Session Store ──────────────────────────────────────────────────
	sessionStore, closeSessions, err := openSessionStore(startupCtx, cfg, log)
	must(log, err, "open session store")
	defer closeSessions()

	// ── 5. Security Primitives ────────────────────────────────────────────
	hasher, err := sec.NewPasswordHasherByName(cfg.PasswordHasher, sec.NewPool(0))
	must(log, err, "build password hasher")

	providers, err := buildProviders(startupCtx, cfg)
	must(log, err, "discover identity providers")
	log.Info("identity_providers_registered", slog.Any("providers", providers.Names()))

	flows := sec.NewFlowSigner([]byte(cfg.SessionSecret), constants.FlowIssuer, constants.FlowTTL)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	sessions := session.NewManager(sessionStore, credentials, cfg.SessionTTL)
	cookies := session.NewCookieOptions(!cfg.IsDevelopment())
	renderer := respond.JSONRenderer{}

	authHandler := auth.NewHandler(auth.HandlerOptions{
		Verifier:  auth.NewVerifier(credentials, hasher),
		Registrar: auth.NewRegistrar(credentials, hasher),
		Resolver:  auth.NewResolver(credentials),
		Sessions:  sessions,
		Providers: providers,
		Flows:     flows,
		Renderer:  renderer,
		Cookies:   cookies,
	})

	secretHandler := secret.NewHandler(session.NewGuard(sessions), secret.NewService(credentials), renderer, cookies)

	liveness, readiness := api.NewHealthHandlers([]api.Check{
		{Name: cfg.DatabaseDriver, Ping: credentials.Ping},
		{Name: cfg.SessionStore, Ping: sessions.Ping},
	}, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Secret:    secretHandler,
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the process logger and installs it as the default.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

// openCredentialStore connects the configured backend and brings its schema
// up to date.
func openCredentialStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (account.Repository, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return account.NewSQLiteRepository(db), func() {
			log.Info("closing sqlite database")
			_ = db.Close()
		}, nil

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return account.NewPostgresRepository(pool), func() {
			log.Info("closing postgres pool")
			pool.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// openSessionStore connects the configured session backend.
func openSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		log.Warn("in-memory session store: sessions are lost on restart and not shared between instances")
		return session.NewMemoryStore(0), func() {}, nil

	case config.SessionStoreRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client), func() {
			log.Info("closing redis client")
			if cerr := client.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}
}

// buildProviders registers every identity provider whose configuration is
// complete. Discovery runs now so a bad issuer URL stops startup.
func buildProviders(ctx context.Context, cfg *config.Config) (*provider.Registry, error) {
	var list []provider.Provider

	if cfg.GoogleEnabled() {
		googleProvider, err := google.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			return nil, err
		}
		list = append(list, googleProvider)
	}

	if cfg.OIDCEnabled() {
		oidcProvider, err := oidc.New(ctx, oidc.Config{
			Name:         cfg.OIDCProviderName,
			IssuerURL:    cfg.OIDCIssuerURL,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, oidcProvider)
	}

	return provider.NewRegistry(list...)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
