// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/ctxutil"
	"github.com/taibuivan/secrets/internal/platform/sec"
	"github.com/taibuivan/secrets/internal/users/account"
)

// IdentityFinder is the part of the credential store the manager needs.
type IdentityFinder interface {
	FindByID(context context.Context, id string) (*account.Identity, error)
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store      Store
	identities IdentityFinder
	ttl        time.Duration
	now        func() time.Time
}

// NewManager creates a manager. A non-positive ttl falls back to
// [constants.DefaultSessionTTL].
func NewManager(store Store, identities IdentityFinder, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &Manager{store: store, identities: identities, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of newly issued sessions.
func (manager *Manager) TTL() time.Duration {
	return manager.ttl
}

/*
Establish issues a fresh session for identity.

Parameters:
  - context: context.Context
  - identity: *account.Identity

Returns:
  - Issued: Token for the client and its expiry
  - error: Token generation or store failures
*/
func (manager *Manager) Establish(context context.Context, identity *account.Identity) (Issued, error) {
	if identity == nil || identity.ID == "" {
		return Issued{}, errors.New("session: establish requires a stored identity")
	}

	token, err := sec.GenerateSecureToken(constants.SessionTokenBytes)
	if err != nil {
		return Issued{}, fmt.Errorf("session_establish_failed: %w", err)
	}

	now := manager.now().UTC()
	record := Record{
		IdentityID: identity.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(manager.ttl),
	}

	if err := manager.store.Save(context, storeKey(token), record, manager.ttl); err != nil {
		return Issued{}, fmt.Errorf("session_establish_failed: %w", err)
	}

	ctxutil.GetLogger(context).Debug("session_established",
		slog.String(constants.FieldIdentityID, identity.ID),
	)

	return Issued{Token: token, ExpiresAt: record.ExpiresAt}, nil
}

/*
Rotate destroys previous (if any) and establishes a new session for identity.
Used on every login so a token planted before authentication never becomes
authenticated.

Parameters:
  - context: context.Context
  - previous: string (may be empty)
  - identity: *account.Identity

Returns:
  - Issued: The new session
  - error: Store failures
*/
func (manager *Manager) Rotate(context context.Context, previous string, identity *account.Identity) (Issued, error) {
	if err := manager.Destroy(context, previous); err != nil {
		return Issued{}, err
	}
	return manager.Establish(context, identity)
}

/*
Resolve returns the identity bound to token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *account.Identity: The current identity record
  - error: ErrNoSession, or a wrapped ErrStoreUnavailable / account error
*/
func (manager *Manager) Resolve(context context.Context, token string) (*account.Identity, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	key := storeKey(token)

	record, err := manager.store.Load(context, key)
	if err != nil {
		return nil, err
	}

	// Stores that expire lazily may still hand back a stale record.
	if record.Expired(manager.now()) {
		_ = manager.store.Delete(context, key)
		return nil, ErrNoSession
	}

	identity, err := manager.identities.FindByID(context, record.IdentityID)
	if errors.Is(err, account.ErrNotFound) {
		_ = manager.store.Delete(context, key)
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session_resolve_failed: %w", err)
	}

	return identity, nil
}

// Destroy removes the session for token. Unknown and empty tokens are ignored.
func (manager *Manager) Destroy(context context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := manager.store.Delete(context, storeKey(token)); err != nil {
		return fmt.Errorf("session_destroy_failed: %w", err)
	}
	return nil
}

// Ping checks the session store.
func (manager *Manager) Ping(context context.Context) error {
	return manager.store.Ping(context)
}

// storeKey derives the store key from a client token.
func storeKey(token string) string {
	return sec.HashToken(token)
}
