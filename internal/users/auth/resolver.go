// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/ctxutil"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/auth/provider"
)

// Resolver maps a provider-verified profile to a local identity, creating
// one on first sight. The provider handshake has already validated the
// token; the resolver still refuses an email the provider has not verified.
type Resolver struct {
	store CredentialStore
}

// NewResolver creates a resolver.
func NewResolver(store CredentialStore) *Resolver {
	return &Resolver{store: store}
}

/*
Resolve finds or creates the identity for profile.

Identities created here carry no password. A concurrent first login for the
same email is idempotent: the loser re-reads the winner's record. A profile
whose email the provider has not verified is rejected before any lookup, so
it can never be matched to an existing identity.

Parameters:
  - context: context.Context
  - profile: provider.Profile

Returns:
  - Result: Success with the identity, or VerifierError with
    ErrProviderAssertionInvalid / ErrStoreUnavailable as the cause
*/
func (resolver *Resolver) Resolve(context context.Context, profile provider.Profile) Result {
	email := account.NormalizeEmail(profile.Email)
	if email == "" {
		return failure(StatusVerifierError, fmt.Errorf("%w: %s profile has no email", ErrProviderAssertionInvalid, profile.Provider))
	}
	if !profile.EmailVerified {
		return failure(StatusVerifierError, fmt.Errorf("%w: %s has not verified the email", ErrProviderAssertionInvalid, profile.Provider))
	}

	// 1. Existing identity
	identity, err := resolver.store.FindByEmail(context, email)
	if err == nil {
		return success(identity)
	}
	if !errors.Is(err, account.ErrNotFound) {
		return failure(StatusVerifierError, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}

	// 2. First login through a provider
	identity, err = resolver.store.Create(context, email, nil)
	if errors.Is(err, account.ErrDuplicateEmail) {
		// Lost the race; the winner's record is the answer
		identity, err = resolver.store.FindByEmail(context, email)
		if err != nil {
			return failure(StatusVerifierError, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
		}
		return success(identity)
	}
	if err != nil {
		return failure(StatusVerifierError, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}

	ctxutil.GetLogger(context).Info("delegated_identity_created",
		slog.String(constants.FieldProvider, profile.Provider),
		slog.String(constants.FieldIdentityID, identity.ID),
	)
	return success(identity)
}
