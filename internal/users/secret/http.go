// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package secret

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/secrets/internal/platform/apperr"
	requestutil "github.com/taibuivan/secrets/internal/platform/request"
	"github.com/taibuivan/secrets/internal/platform/respond"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/session"
)

// Page names.
const (
	ViewSecrets = "secrets"
	ViewSubmit  = "submit"
)

// Handler serves the guarded pages.
type Handler struct {
	guard    *session.Guard
	service  *Service
	renderer respond.Renderer
	cookies  session.CookieOptions
}

// NewHandler constructs a new [Handler]. A nil renderer defaults to JSON.
func NewHandler(guard *session.Guard, service *Service, renderer respond.Renderer, cookies session.CookieOptions) *Handler {
	if renderer == nil {
		renderer = respond.JSONRenderer{}
	}
	return &Handler{guard: guard, service: service, renderer: renderer, cookies: cookies}
}

// RegisterRoutes attaches the protected routes to router.
//
// # Endpoints
//   - GET  /secrets : Shows the caller's secret.
//   - GET  /submit  : Secret submission form.
//   - POST /submit  : Stores a new secret.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/secrets", handler.show)
	router.Get("/submit", handler.submitPage)
	router.Post("/submit", handler.submit)
}

type secretView struct {
	Email  string              `json:"email"`
	Secret *string             `json:"secret"`
	Errors []apperr.FieldError `json:"errors,omitempty"`
}

// authenticate runs the guard. On denial it has already redirected to /login.
func (handler *Handler) authenticate(writer http.ResponseWriter, request *http.Request) (*account.Identity, bool) {
	token := session.TokenFromRequest(request, handler.cookies)

	identity, err := handler.guard.RequireAuthenticated(request.Context(), token)
	if err != nil {
		// A stale cookie is dropped so the browser stops presenting it.
		if token != "" {
			session.ClearCookie(writer, handler.cookies)
		}
		respond.Redirect(writer, request, "/login")
		return nil, false
	}
	return identity, true
}

/*
Show renders the caller's secret.

GET /secrets

Response:
  - 200: view "secrets" with email and secret
  - 302 /login: Not authenticated
*/
func (handler *Handler) show(writer http.ResponseWriter, request *http.Request) {
	identity, ok := handler.authenticate(writer, request)
	if !ok {
		return
	}
	handler.renderer.Render(writer, request, http.StatusOK, ViewSecrets, secretView{Email: identity.Email, Secret: identity.Secret})
}

func (handler *Handler) submitPage(writer http.ResponseWriter, request *http.Request) {
	identity, ok := handler.authenticate(writer, request)
	if !ok {
		return
	}
	handler.renderer.Render(writer, request, http.StatusOK, ViewSubmit, secretView{Email: identity.Email, Secret: identity.Secret})
}

/*
Submit stores a new secret and shows it.

POST /submit

Request:
  - Form: secret

Response:
  - 302 /secrets: Stored
  - 302 /login: Not authenticated
  - 400: view "submit" with field errors
  - 503: Credential store unavailable
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	identity, ok := handler.authenticate(writer, request)
	if !ok {
		return
	}

	if err := requestutil.ParseForm(writer, request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.service.Submit(request.Context(), identity, requestutil.FormValue(request, account.FieldSecret))
	if validation := apperr.As(err); validation != nil {
		handler.renderer.Render(writer, request, validation.HTTPStatus, ViewSubmit,
			secretView{Email: identity.Email, Secret: identity.Secret, Errors: validation.Details})
		return
	}
	if errors.Is(err, account.ErrNotFound) {
		// Identity vanished between the guard and the write.
		session.ClearCookie(writer, handler.cookies)
		respond.Redirect(writer, request, "/login")
		return
	}
	if err != nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Secret could not be saved", err))
		return
	}

	respond.Redirect(writer, request, "/secrets")
}
