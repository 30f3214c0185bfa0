// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package secret_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/sqlite"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/secret"
	"github.com/taibuivan/secrets/internal/users/session"
)

type harness struct {
	router   chi.Router
	store    *account.SQLiteRepository
	sessions *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "secret.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := account.NewSQLiteRepository(db)
	sessions := session.NewManager(session.NewMemoryStore(0), store, time.Hour)
	handler := secret.NewHandler(session.NewGuard(sessions), secret.NewService(store), nil, session.NewCookieOptions(false))

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return &harness{router: router, store: store, sessions: sessions}
}

// signIn creates an identity and returns its session cookie.
func (h *harness) signIn(t *testing.T, email string) (*account.Identity, *http.Cookie) {
	t.Helper()

	identity, err := h.store.Create(context.Background(), email, nil)
	require.NoError(t, err)

	issued, err := h.sessions.Establish(context.Background(), identity)
	require.NoError(t, err)

	return identity, &http.Cookie{Name: constants.SessionCookieName, Value: issued.Token}
}

func (h *harness) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	request := httptest.NewRequest(method, target, body)
	if form != nil {
		request.Header.Set(constants.HeaderContentType, "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

type viewBody struct {
	View string `json:"view"`
	Data struct {
		Email  string  `json:"email"`
		Secret *string `json:"secret"`
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	} `json:"data"`
}

func decodeView(t *testing.T, recorder *httptest.ResponseRecorder) viewBody {
	t.Helper()
	var body viewBody
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	return body
}

/*
TestGuardedRoutes_RedirectAnonymous sends every protected route to /login.
*/
func TestGuardedRoutes_RedirectAnonymous(t *testing.T) {
	h := newHarness(t)
	stale := &http.Cookie{Name: constants.SessionCookieName, Value: "expired-or-forged"}

	cases := []struct {
		method string
		path   string
		form   url.Values
	}{
		{http.MethodGet, "/secrets", nil},
		{http.MethodGet, "/submit", nil},
		{http.MethodPost, "/submit", url.Values{account.FieldSecret: {"x"}}},
	}

	for _, tc := range cases {
		// 1. No cookie at all
		recorder := h.do(tc.method, tc.path, tc.form, nil)
		assert.Equal(t, http.StatusFound, recorder.Code, tc.path)
		assert.Equal(t, "/login", recorder.Header().Get(constants.HeaderLocation))

		// 2. Unknown token is redirected and cleared
		recorder = h.do(tc.method, tc.path, tc.form, stale)
		assert.Equal(t, "/login", recorder.Header().Get(constants.HeaderLocation))
		require.Len(t, recorder.Result().Cookies(), 1)
		assert.Less(t, recorder.Result().Cookies()[0].MaxAge, 0)
	}
}

/*
TestSecrets_SubmitAndShow stores a secret and shows it on the next request.
*/
func TestSecrets_SubmitAndShow(t *testing.T) {
	h := newHarness(t)
	_, cookie := h.signIn(t, "a@x.io")

	// 1. Nothing stored yet
	recorder := h.do(http.MethodGet, "/secrets", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeView(t, recorder)
	assert.Equal(t, secret.ViewSecrets, body.View)
	assert.Equal(t, "a@x.io", body.Data.Email)
	assert.Nil(t, body.Data.Secret)

	// 2. Submission form
	recorder = h.do(http.MethodGet, "/submit", nil, cookie)
	assert.Equal(t, secret.ViewSubmit, decodeView(t, recorder).View)

	// 3. Submit redirects back to the secret page
	recorder = h.do(http.MethodPost, "/submit", url.Values{account.FieldSecret: {"I like pineapple"}}, cookie)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/secrets", recorder.Header().Get(constants.HeaderLocation))

	// 4. The new value is visible
	body = decodeView(t, h.do(http.MethodGet, "/secrets", nil, cookie))
	require.NotNil(t, body.Data.Secret)
	assert.Equal(t, "I like pineapple", *body.Data.Secret)
}

/*
TestSecrets_IsolatedPerIdentity never shows one identity's secret to another.
*/
func TestSecrets_IsolatedPerIdentity(t *testing.T) {
	h := newHarness(t)
	_, alice := h.signIn(t, "a@x.io")
	_, bob := h.signIn(t, "b@x.io")

	h.do(http.MethodPost, "/submit", url.Values{account.FieldSecret: {"alice's"}}, alice)

	body := decodeView(t, h.do(http.MethodGet, "/secrets", nil, bob))
	assert.Equal(t, "b@x.io", body.Data.Email)
	assert.Nil(t, body.Data.Secret)
}

/*
TestSubmit_Validation re-renders the form for an empty or oversized secret.
*/
func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t)
	_, cookie := h.signIn(t, "a@x.io")

	for _, value := range []string{"", "   ", strings.Repeat("s", secret.MaxSecretLength+1)} {
		recorder := h.do(http.MethodPost, "/submit", url.Values{account.FieldSecret: {value}}, cookie)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		body := decodeView(t, recorder)
		assert.Equal(t, secret.ViewSubmit, body.View)
		require.Len(t, body.Data.Errors, 1)
		assert.Equal(t, account.FieldSecret, body.Data.Errors[0].Field)
	}
}
