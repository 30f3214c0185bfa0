// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package secret serves the protected resource: each identity's stored secret.

Every handler asks the session guard on every request; there is no
middleware-level cache of the decision.
*/
package secret

import (
	"context"
	"fmt"

	"github.com/taibuivan/secrets/internal/platform/validate"
	"github.com/taibuivan/secrets/internal/users/account"
)

// MaxSecretLength bounds a submitted secret in characters.
const MaxSecretLength = 4096

// Store is the part of [account.Repository] the service writes through.
type Store interface {
	UpdateSecret(context context.Context, id string, secret string) (*account.Identity, error)
}

// Service applies secret submissions.
type Service struct {
	store Store
}

// NewService creates a new [Service].
func NewService(store Store) *Service {
	return &Service{store: store}
}

/*
Submit validates and stores a new secret for identity.

Parameters:
  - context: context.Context
  - identity: *account.Identity (already authenticated)
  - value: string

Returns:
  - *account.Identity: The updated identity
  - error: apperr validation error, account.ErrNotFound or a store failure
*/
func (service *Service) Submit(context context.Context, identity *account.Identity, value string) (*account.Identity, error) {
	validator := &validate.Validator{}
	validator.Required(account.FieldSecret, value).
		MaxLen(account.FieldSecret, value, MaxSecretLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	updated, err := service.store.UpdateSecret(context, identity.ID, value)
	if err != nil {
		return nil, fmt.Errorf("secret_submit_failed: %w", err)
	}
	return updated, nil
}
