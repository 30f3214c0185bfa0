// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oidc_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/taibuivan/secrets/internal/users/auth/provider/oidc"
)

const (
	clientID = "client-1"
	keyID    = "key-1"
)

// issuer is a minimal OpenID Connect provider: discovery, JWKS, token and
// userinfo endpoints backed by one RSA key.
type issuer struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	claims     jwt.MapClaims
	userEmail  string
	challenges map[string]string // code -> S256 challenge
}

func newIssuer(t *testing.T) *issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &issuer{key: key, challenges: map[string]string{}}
	mux := http.NewServeMux()
	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"issuer":                                idp.server.URL,
			"authorization_endpoint":                idp.server.URL + "/authorize",
			"token_endpoint":                        idp.server.URL + "/token",
			"userinfo_endpoint":                     idp.server.URL + "/userinfo",
			"jwks_uri":                              idp.server.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})

	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// PKCE: the verifier must hash to the challenge sent at authorization
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != idp.challenges[r.PostForm.Get("code")] {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "invalid_grant"})
			return
		}

		idToken, err := idp.sign()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"sub": idp.claims["sub"], "email": idp.userEmail, "email_verified": true})
	})

	idp.claims = jwt.MapClaims{
		"iss":            idp.server.URL,
		"aud":            clientID,
		"sub":            "subject-1",
		"email":          "person@x.io",
		"email_verified": true,
	}
	return idp
}

func (idp *issuer) sign() (string, error) {
	claims := jwt.MapClaims{"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix()}
	for k, v := range idp.claims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	return token.SignedString(idp.key)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func newProvider(t *testing.T, idp *issuer) *oidc.Provider {
	t.Helper()

	p, err := oidc.New(context.Background(), oidc.Config{
		Name:         "corp",
		IssuerURL:    idp.server.URL,
		ClientID:     clientID,
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:8080/auth/corp/callback",
	})
	require.NoError(t, err)
	return p
}

// authorize follows AuthCodeURL and records the challenge under code.
func authorize(t *testing.T, idp *issuer, p *oidc.Provider, code, verifier string) {
	t.Helper()

	authURL, err := url.Parse(p.AuthCodeURL("state-1", verifier))
	require.NoError(t, err)

	query := authURL.Query()
	assert.Equal(t, idp.server.URL+"/authorize", authURL.Scheme+"://"+authURL.Host+authURL.Path)
	assert.Equal(t, "state-1", query.Get("state"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Contains(t, query.Get("scope"), "openid")

	idp.challenges[code] = query.Get("code_challenge")
}

/*
TestProvider_Exchange completes a PKCE code exchange and verifies the ID token.
*/
func TestProvider_Exchange(t *testing.T) {
	idp := newIssuer(t)
	p := newProvider(t, idp)
	assert.Equal(t, "corp", p.Name())

	verifier := oauth2.GenerateVerifier()
	authorize(t, idp, p, "code-1", verifier)

	profile, err := p.Exchange(context.Background(), "code-1", verifier)
	require.NoError(t, err)
	assert.Equal(t, "corp", profile.Provider)
	assert.Equal(t, "subject-1", profile.Subject)
	assert.Equal(t, "person@x.io", profile.Email)
	assert.True(t, profile.EmailVerified)
}

/*
TestProvider_ExchangeWrongVerifier is refused by the issuer.
*/
func TestProvider_ExchangeWrongVerifier(t *testing.T) {
	idp := newIssuer(t)
	p := newProvider(t, idp)

	authorize(t, idp, p, "code-1", oauth2.GenerateVerifier())

	_, err := p.Exchange(context.Background(), "code-1", oauth2.GenerateVerifier())
	assert.Error(t, err)
}

/*
TestProvider_ExchangeRejectsForeignAudience refuses ID tokens minted for
another client.
*/
func TestProvider_ExchangeRejectsForeignAudience(t *testing.T) {
	idp := newIssuer(t)
	idp.claims["aud"] = "someone-else"
	p := newProvider(t, idp)

	verifier := oauth2.GenerateVerifier()
	authorize(t, idp, p, "code-1", verifier)

	_, err := p.Exchange(context.Background(), "code-1", verifier)
	assert.ErrorContains(t, err, "verification failed")
}

/*
TestProvider_UserInfoFallback fetches the email when the ID token omits it.
*/
func TestProvider_UserInfoFallback(t *testing.T) {
	idp := newIssuer(t)
	delete(idp.claims, "email")
	delete(idp.claims, "email_verified")
	idp.userEmail = "from-userinfo@x.io"
	p := newProvider(t, idp)

	verifier := oauth2.GenerateVerifier()
	authorize(t, idp, p, "code-1", verifier)

	profile, err := p.Exchange(context.Background(), "code-1", verifier)
	require.NoError(t, err)
	assert.Equal(t, "from-userinfo@x.io", profile.Email)
	assert.True(t, profile.EmailVerified)
}

/*
TestNew_RequiresConfiguration fails fast on incomplete registrations.
*/
func TestNew_RequiresConfiguration(t *testing.T) {
	_, err := oidc.New(context.Background(), oidc.Config{Name: "corp", IssuerURL: "http://127.0.0.1:1"})
	assert.Error(t, err)
}
