// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth turns credentials into identities.

# Architecture

  - [Verifier]: local email and password check against the credential store.
  - [Registrar]: local sign-up.
  - [Resolver]: find-or-create for profiles asserted by an identity provider.
  - [Handler]: the HTTP pages and redirects around all three, plus session
    establishment through the session package.

Nothing in this package keeps state between requests.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/ctxutil"
	"github.com/taibuivan/secrets/internal/platform/sec"
	"github.com/taibuivan/secrets/internal/users/account"
)

// # Contracts

// CredentialStore is the part of [account.Repository] this package uses.
type CredentialStore interface {
	FindByEmail(context context.Context, email string) (*account.Identity, error)
	Create(context context.Context, email string, passwordHash *string) (*account.Identity, error)
}

// Hasher is satisfied by [sec.PasswordHasher].
type Hasher interface {
	Hash(context context.Context, plaintext string) (string, error)
	Compare(context context.Context, plaintext, digest string) (bool, error)
}

// # Verification Result

// Status is the outcome class of a credential check.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidCredentials
	StatusUserNotFound
	StatusVerifierError
)

func (status Status) String() string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusInvalidCredentials:
		return "invalid_credentials"
	case StatusUserNotFound:
		return "user_not_found"
	default:
		return "verifier_error"
	}
}

// Result is the transient outcome of [Verifier.Verify] and [Resolver.Resolve].
type Result struct {
	Status   Status
	Identity *account.Identity
	Cause    error
}

// Err returns nil on success and the matching sentinel otherwise.
func (result Result) Err() error {
	switch result.Status {
	case StatusSuccess:
		return nil
	case StatusInvalidCredentials:
		return ErrInvalidCredentials
	case StatusUserNotFound:
		return ErrUserNotFound
	default:
		if result.Cause != nil {
			return result.Cause
		}
		return ErrStoreUnavailable
	}
}

func success(identity *account.Identity) Result {
	return Result{Status: StatusSuccess, Identity: identity}
}

func failure(status Status, cause error) Result {
	return Result{Status: status, Cause: cause}
}

// # Local Credential Verifier

// Verifier checks an email and password against the credential store.
// It has no side effects.
type Verifier struct {
	store  CredentialStore
	hasher Hasher
}

// NewVerifier creates a verifier.
func NewVerifier(store CredentialStore, hasher Hasher) *Verifier {
	return &Verifier{store: store, hasher: hasher}
}

/*
Verify authenticates a local login attempt.

Parameters:
  - context: context.Context
  - email: string (raw form input; canonicalized here)
  - password: string

Returns:
  - Result: Success with the identity, InvalidCredentials, UserNotFound or
    VerifierError with the cause
*/
func (verifier *Verifier) Verify(context context.Context, email, password string) Result {
	logger := ctxutil.GetLogger(context)

	// 1. Lookup
	identity, err := verifier.store.FindByEmail(context, account.NormalizeEmail(email))
	if errors.Is(err, account.ErrNotFound) {
		return failure(StatusUserNotFound, nil)
	}
	if err != nil {
		return failure(StatusVerifierError, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}

	// 2. Delegated-only identities have nothing to compare against
	if !identity.HasPassword() {
		logger.Info("local_login_on_delegated_identity", slog.String(constants.FieldIdentityID, identity.ID))
		return failure(StatusInvalidCredentials, nil)
	}

	// 3. Digest comparison
	matched, err := verifier.hasher.Compare(context, password, *identity.PasswordHash)
	switch {
	case errors.Is(err, sec.ErrMalformedDigest) || errors.Is(err, sec.ErrUnknownAlgorithm):
		// Fail closed; a corrupt digest must never authenticate.
		logger.Error("password_digest_unreadable",
			slog.String(constants.FieldIdentityID, identity.ID),
			slog.Any("error", fmt.Errorf("%w: %w", ErrHasherFailure, err)),
		)
		return failure(StatusInvalidCredentials, nil)
	case err != nil:
		return failure(StatusVerifierError, fmt.Errorf("%w: %w", ErrHasherFailure, err))
	case !matched:
		return failure(StatusInvalidCredentials, nil)
	}

	return success(identity)
}
