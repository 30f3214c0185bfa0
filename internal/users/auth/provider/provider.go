// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provider defines the contract for external identity providers.

Implementations perform the OAuth 2.0 authorization code exchange with PKCE and
validate the OpenID Connect ID token. They return identity facts only; they
never create identities or sessions.
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider means the registry holds no provider with that name.
var ErrUnknownProvider = errors.New("provider: unknown identity provider")

// Profile is a provider-verified assertion about the signed-in user.
type Profile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
}

// Provider is an external identity provider.
type Provider interface {
	// Name is the path segment under /auth/ ("google", "oidc").
	Name() string

	// AuthCodeURL builds the authorization redirect. state and verifier are
	// generated by the caller; the S256 challenge is derived here.
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for a verified profile.
	Exchange(context context.Context, code, verifier string) (*Profile, error)
}

// Registry looks providers up by name. It is immutable after construction.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers. A duplicate name is an error.
func NewRegistry(list ...Provider) (*Registry, error) {
	providers := make(map[string]Provider, len(list))
	for _, item := range list {
		if _, exists := providers[item.Name()]; exists {
			return nil, fmt.Errorf("provider: duplicate provider %q", item.Name())
		}
		providers[item.Name()] = item
	}
	return &Registry{providers: providers}, nil
}

// Get returns the named provider or [ErrUnknownProvider].
func (registry *Registry) Get(name string) (Provider, error) {
	item, ok := registry.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return item, nil
}

// Names returns the registered provider names in sorted order.
func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
