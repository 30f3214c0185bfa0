// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/taibuivan/secrets/internal/platform/apperr"
	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/secrets/internal/platform/request"
	"github.com/taibuivan/secrets/internal/platform/respond"
	"github.com/taibuivan/secrets/internal/platform/sec"
	"github.com/taibuivan/secrets/internal/platform/validate"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/auth/provider"
	"github.com/taibuivan/secrets/internal/users/session"
)

// # Page Names & Redirect Targets

const (
	ViewHome     = "home"
	ViewLogin    = "login"
	ViewRegister = "register"

	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathSecrets  = "/secrets"

	// Registration passwords are bounded in bytes; bcrypt ignores input past 72.
	PasswordMinLength = 8
	PasswordMaxBytes  = 72
	EmailMaxLength    = 254
)

// Error codes carried in the ?error= query of the login and register pages.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidInput       = "invalid_input"
	CodeAlreadyRegistered  = "already_registered"
	CodeProviderDenied     = "provider_denied"
	CodeProviderFailed     = "provider_failed"
	CodeInvalidFlow        = "invalid_flow"
	CodeUnavailable        = "unavailable"
)

// # Definitions & Constructors

// Handler serves the public authentication pages and the delegated login flow.
type Handler struct {
	verifier  *Verifier
	registrar *Registrar
	resolver  *Resolver
	sessions  *session.Manager
	providers *provider.Registry
	flows     *sec.FlowSigner
	renderer  respond.Renderer
	cookies   session.CookieOptions
}

// HandlerOptions collects the collaborators of [Handler].
type HandlerOptions struct {
	Verifier  *Verifier
	Registrar *Registrar
	Resolver  *Resolver
	Sessions  *session.Manager
	Providers *provider.Registry
	Flows     *sec.FlowSigner
	Renderer  respond.Renderer
	Cookies   session.CookieOptions
}

// NewHandler constructs a new [Handler]. A nil renderer defaults to JSON.
func NewHandler(options HandlerOptions) *Handler {
	if options.Renderer == nil {
		options.Renderer = respond.JSONRenderer{}
	}
	return &Handler{
		verifier:  options.Verifier,
		registrar: options.Registrar,
		resolver:  options.Resolver,
		sessions:  options.Sessions,
		providers: options.Providers,
		flows:     options.Flows,
		renderer:  options.Renderer,
		cookies:   options.Cookies,
	}
}

// RegisterRoutes attaches the public authentication routes to router. They
// live at the site root, next to the protected pages, so the handler registers
// onto a shared router rather than being mounted under a prefix.
//
// # Endpoints
//   - GET  /                          : Home page.
//   - GET  /login, /register          : Forms.
//   - POST /login, /register          : Local credential flows.
//   - GET  /logout                    : Ends the session.
//   - GET  /auth/{provider}           : Starts a delegated login.
//   - GET  /auth/{provider}/callback  : Completes it (also served at /secrets).
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get(PathHome, handler.home)
	router.Get(PathLogin, handler.loginPage)
	router.Post(PathLogin, handler.login)
	router.Get(PathRegister, handler.registerPage)
	router.Post(PathRegister, handler.register)
	router.Get("/logout", handler.logout)

	router.Route("/auth/{provider}", func(r chi.Router) {
		r.Get("/", handler.beginDelegated)
		r.Get("/callback", handler.completeDelegated)
		r.Get("/secrets", handler.completeDelegated)
	})
}

// # Pages

type pageData struct {
	Error     string   `json:"error,omitempty"`
	Providers []string `json:"providers"`
}

func (handler *Handler) page(request *http.Request) pageData {
	return pageData{
		Error:     request.URL.Query().Get("error"),
		Providers: handler.providers.Names(),
	}
}

func (handler *Handler) home(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, request, http.StatusOK, ViewHome, handler.page(request))
}

func (handler *Handler) loginPage(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, request, http.StatusOK, ViewLogin, handler.page(request))
}

func (handler *Handler) registerPage(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, request, http.StatusOK, ViewRegister, handler.page(request))
}

// # Local Credentials

/*
Login handles a local email and password submission.

POST /login

Request:
  - Form: username (or email), password

Response:
  - 302 /secrets: Session established
  - 302 /login?error=invalid_credentials: Unknown email or wrong password
  - 302 /login?error=unavailable: Store or hasher failure
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	if err := requestutil.ParseForm(writer, request); err != nil {
		redirectWithError(writer, request, PathLogin, CodeInvalidCredentials)
		return
	}

	email := requestutil.TrimmedFormValue(request, account.FieldUsername, account.FieldEmail)
	password := requestutil.FormValue(request, account.FieldPassword)
	if email == "" || password == "" {
		redirectWithError(writer, request, PathLogin, CodeInvalidCredentials)
		return
	}

	result := handler.verifier.Verify(ctx, email, password)
	err := result.Err()
	switch {
	case err == nil:
		handler.establish(writer, request, result.Identity, PathLogin)

	case IsRecoverable(err):
		// Unknown email and wrong password look the same to the client.
		logger.Info("local_login_rejected", slog.String(constants.FieldReason, result.Status.String()))
		redirectWithError(writer, request, PathLogin, CodeInvalidCredentials)

	default:
		logger.Error("local_login_failed", slog.Any("error", err))
		redirectWithError(writer, request, PathLogin, CodeUnavailable)
	}
}

/*
Register creates a local identity and signs it in.

POST /register

Request:
  - Form: username (or email), password

Response:
  - 302 /secrets: Identity created, session established
  - 302 /login?error=already_registered: Email taken
  - 302 /register?error=invalid_input: Validation failure
  - 302 /register?error=unavailable: Store or hasher failure
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	if err := requestutil.ParseForm(writer, request); err != nil {
		redirectWithError(writer, request, PathRegister, CodeInvalidInput)
		return
	}

	email := requestutil.TrimmedFormValue(request, account.FieldUsername, account.FieldEmail)
	password := requestutil.FormValue(request, account.FieldPassword)

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, email).
		MaxLen(account.FieldEmail, email, EmailMaxLength).
		Email(account.FieldEmail, email).
		Required(account.FieldPassword, password).
		MinLen(account.FieldPassword, password, PasswordMinLength).
		MaxBytes(account.FieldPassword, password, PasswordMaxBytes)

	if err := validator.Err(); err != nil {
		logger.Info("registration_rejected", slog.Any("error", apperr.As(err)))
		redirectWithError(writer, request, PathRegister, CodeInvalidInput)
		return
	}

	identity, err := handler.registrar.Register(ctx, email, password)
	switch {
	case errors.Is(err, ErrDuplicateRegistration):
		redirectWithError(writer, request, PathLogin, CodeAlreadyRegistered)
		return
	case err != nil:
		logger.Error("registration_failed", slog.Any("error", err))
		redirectWithError(writer, request, PathRegister, CodeUnavailable)
		return
	}

	logger.Info("identity_registered", slog.String(constants.FieldIdentityID, identity.ID))
	handler.establish(writer, request, identity, PathLogin)
}

/*
Logout ends the session.

GET /logout

The cookie is cleared even when the store no longer knows the token or
cannot be reached.
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := session.TokenFromRequest(request, handler.cookies)

	if err := handler.sessions.Destroy(request.Context(), token); err != nil {
		ctxutil.GetLogger(request.Context()).Error("logout_destroy_failed", slog.Any("error", err))
	}

	session.ClearCookie(writer, handler.cookies)
	respond.Redirect(writer, request, PathHome)
}

// # Delegated Login

/*
beginDelegated redirects the browser to the identity provider.

GET /auth/{provider}

A fresh state and PKCE verifier are bound to the provider in a signed,
short-lived cookie scoped to /auth/.
*/
func (handler *Handler) beginDelegated(writer http.ResponseWriter, request *http.Request) {
	idp, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		respond.Error(writer, request, apperr.NotFound("Identity provider"))
		return
	}

	state, err := sec.GenerateSecureToken(constants.SessionTokenBytes)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	verifier := oauth2.GenerateVerifier()

	envelope, err := handler.flows.Sign(idp.Name(), state, verifier)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.FlowCookieName,
		Value:    envelope,
		Path:     flowCookiePath,
		MaxAge:   int(constants.FlowTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	respond.Redirect(writer, request, idp.AuthCodeURL(state, verifier))
}

/*
completeDelegated finishes a delegated login.

GET /auth/{provider}/callback
GET /auth/{provider}/secrets

Response:
  - 302 /secrets: Session established
  - 302 /login?error=...: Provider refused, flow invalid or exchange failed
  - 400: No authorization code
  - 404: Unknown provider
*/
func (handler *Handler) completeDelegated(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	idp, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		respond.Error(writer, request, apperr.NotFound("Identity provider"))
		return
	}
	logger = logger.With(slog.String(constants.FieldProvider, idp.Name()))

	// The flow cookie is single use.
	envelope := requestutil.CookieValue(request, constants.FlowCookieName)
	clearFlowCookie(writer, handler.cookies.Secure)

	query := request.URL.Query()

	// 1. Provider-side refusal (user cancelled, consent denied)
	if providerError := query.Get("error"); providerError != "" {
		logger.Info("delegated_login_refused", slog.String(constants.FieldReason, providerError))
		redirectWithError(writer, request, PathLogin, CodeProviderDenied)
		return
	}

	code := query.Get("code")
	if code == "" {
		respond.Error(writer, request, apperr.ValidationError("Missing authorization code"))
		return
	}

	// 2. State and PKCE verifier from the signed cookie
	flow, err := handler.flows.Verify(envelope, idp.Name(), query.Get("state"))
	if err != nil {
		logger.Warn("delegated_login_flow_rejected", slog.Any("error", err))
		redirectWithError(writer, request, PathLogin, CodeInvalidFlow)
		return
	}

	// 3. Code exchange and ID token validation
	profile, err := idp.Exchange(ctx, code, flow.Verifier)
	if err != nil {
		logger.Warn("delegated_login_exchange_failed", slog.Any("error", err))
		redirectWithError(writer, request, PathLogin, CodeProviderFailed)
		return
	}

	// 4. Find or create the local identity
	result := handler.resolver.Resolve(ctx, *profile)
	if err := result.Err(); err != nil {
		if errors.Is(err, ErrProviderAssertionInvalid) {
			logger.Warn("delegated_login_assertion_invalid", slog.Any("error", err))
			redirectWithError(writer, request, PathLogin, CodeProviderFailed)
			return
		}
		logger.Error("delegated_login_failed", slog.Any("error", err))
		redirectWithError(writer, request, PathLogin, CodeUnavailable)
		return
	}

	handler.establish(writer, request, result.Identity, PathLogin)
}

// # Internal Helpers

const flowCookiePath = "/auth/"

// establish rotates the session to identity, sets the cookie and redirects
// to the protected page. failurePath receives the browser on store failure.
func (handler *Handler) establish(writer http.ResponseWriter, request *http.Request, identity *account.Identity, failurePath string) {
	ctx := request.Context()

	previous := session.TokenFromRequest(request, handler.cookies)
	issued, err := handler.sessions.Rotate(ctx, previous, identity)
	if err != nil {
		ctxutil.GetLogger(ctx).Error("session_establish_failed",
			slog.String(constants.FieldIdentityID, identity.ID),
			slog.Any("error", err),
		)
		redirectWithError(writer, request, failurePath, CodeUnavailable)
		return
	}

	ctxutil.SetIdentityID(ctx, identity.ID)
	session.SetCookie(writer, issued, handler.cookies)
	respond.Redirect(writer, request, PathSecrets)
}

func clearFlowCookie(writer http.ResponseWriter, secure bool) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.FlowCookieName,
		Value:    "",
		Path:     flowCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func redirectWithError(writer http.ResponseWriter, request *http.Request, path, code string) {
	respond.Redirect(writer, request, path+"?"+url.Values{"error": {code}}.Encode())
}
