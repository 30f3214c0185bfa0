// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oidc implements [provider.Provider] for any OpenID Connect issuer that
supports discovery.

The authorization request always carries a PKCE S256 challenge. The ID token
is verified against the issuer's published keys and the configured client ID.
When the ID token omits the email claim, the UserInfo endpoint is consulted.
*/
package oidc

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/taibuivan/secrets/internal/users/auth/provider"
)

// Config describes one OIDC client registration.
type Config struct {
	Name         string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Scopes defaults to openid, profile and email.
	Scopes []string
}

func (config Config) validate() error {
	if config.Name == "" || config.IssuerURL == "" || config.ClientID == "" || config.RedirectURL == "" {
		return errors.New("oidc: name, issuer, client id and redirect url are required")
	}
	return nil
}

// Provider is a discovered OIDC issuer.
type Provider struct {
	name        string
	issuer      *gooidc.Provider
	oauthConfig *oauth2.Config
	verifier    *gooidc.IDTokenVerifier
}

// New runs discovery against config.IssuerURL.
func New(context context.Context, config Config) (*Provider, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	issuer, err := gooidc.NewProvider(context, config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery for %s failed: %w", config.Name, err)
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		name:   config.Name,
		issuer: issuer,
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     issuer.Endpoint(),
			Scopes:       scopes,
		},
		verifier: issuer.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

// Name implements [provider.Provider].
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL implements [provider.Provider].
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

/*
Exchange implements [provider.Provider].

Parameters:
  - context: context.Context
  - code: string (from the callback query)
  - verifier: string (PKCE verifier from the flow cookie)

Returns:
  - *provider.Profile: Verified identity facts
  - error: Exchange, signature or claim failures
*/
func (p *Provider) Exchange(context context.Context, code, verifier string) (*provider.Profile, error) {
	token, err := p.oauthConfig.Exchange(context, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("oidc: %s token exchange failed: %w", p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("oidc: %s returned no id_token", p.name)
	}

	idToken, err := p.verifier.Verify(context, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("oidc: %s id_token verification failed: %w", p.name, err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc: %s id_token claims unreadable: %w", p.name, err)
	}

	// Some issuers only release the email through UserInfo
	if claims.Email == "" {
		info, err := p.issuer.UserInfo(context, oauth2.StaticTokenSource(token))
		if err != nil {
			return nil, fmt.Errorf("oidc: %s userinfo failed: %w", p.name, err)
		}
		if info.Subject == claims.Subject {
			claims.Email, claims.EmailVerified = info.Email, info.EmailVerified
		}
	}

	return &provider.Profile{
		Provider:      p.name,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

var _ provider.Provider = (*Provider)(nil)
