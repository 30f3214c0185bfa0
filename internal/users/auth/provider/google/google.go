// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package google configures the Google identity provider.
package google

import (
	"context"
	"errors"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/taibuivan/secrets/internal/users/auth/provider/oidc"
)

const (
	// Name is the provider's path segment under /auth/.
	Name = "google"

	// IssuerURL is Google's OpenID Connect discovery root.
	IssuerURL = "https://accounts.google.com"
)

// New discovers Google's endpoints and returns a ready provider.
func New(context context.Context, clientID, clientSecret, redirectURL string) (*oidc.Provider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google: client id, client secret and redirect url are required")
	}

	return oidc.New(context, oidc.Config{
		Name:         Name,
		IssuerURL:    IssuerURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
	})
}
