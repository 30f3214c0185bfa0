// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/taibuivan/secrets/internal/users/account"
)

// Registrar creates identities that sign in with a local password.
type Registrar struct {
	store  CredentialStore
	hasher Hasher
}

// NewRegistrar creates a registrar.
func NewRegistrar(store CredentialStore, hasher Hasher) *Registrar {
	return &Registrar{store: store, hasher: hasher}
}

/*
Register hashes password and stores a new identity for email.

Concurrent registrations of one email are decided by the store's unique
constraint; exactly one succeeds.

Parameters:
  - context: context.Context
  - email: string (raw; canonicalized here)
  - password: string (already validated)

Returns:
  - *account.Identity: The new identity
  - error: ErrDuplicateRegistration, ErrHasherFailure or ErrStoreUnavailable
*/
func (registrar *Registrar) Register(context context.Context, email, password string) (*account.Identity, error) {
	digest, err := registrar.hasher.Hash(context, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHasherFailure, err)
	}

	identity, err := registrar.store.Create(context, account.NormalizeEmail(email), &digest)
	switch {
	case errors.Is(err, account.ErrDuplicateEmail):
		return nil, ErrDuplicateRegistration
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return identity, nil
}
