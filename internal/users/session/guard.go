// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/secrets/internal/platform/ctxutil"
	"github.com/taibuivan/secrets/internal/users/account"
)

// Resolver is implemented by [Manager].
type Resolver interface {
	Resolve(context context.Context, token string) (*account.Identity, error)
}

// Guard decides whether a request may see protected resources.
// It holds no state and caches nothing.
type Guard struct {
	sessions Resolver
}

// NewGuard creates a guard over a session resolver.
func NewGuard(sessions Resolver) *Guard {
	return &Guard{sessions: sessions}
}

// IsAuthenticated reports whether token resolves to a live identity.
func (guard *Guard) IsAuthenticated(context context.Context, token string) bool {
	_, err := guard.RequireAuthenticated(context, token)
	return err == nil
}

/*
RequireAuthenticated returns the identity behind token.

Store failures deny access as well; they are logged here so callers only need
to handle ErrLoginRequired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *account.Identity: The authenticated identity
  - error: ErrLoginRequired
*/
func (guard *Guard) RequireAuthenticated(context context.Context, token string) (*account.Identity, error) {
	identity, err := guard.sessions.Resolve(context, token)
	if err == nil {
		ctxutil.SetIdentityID(context, identity.ID)
		return identity, nil
	}

	if !errors.Is(err, ErrNoSession) {
		ctxutil.GetLogger(context).Error("session_resolve_failed", slog.Any("error", err))
	}
	return nil, ErrLoginRequired
}
