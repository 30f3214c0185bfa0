// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session binds an authenticated identity to an opaque client token.

# Architecture

  - Token: 256 random bits, base64url. Only the client ever holds it.
  - Store: keyed by the SHA-256 of the token, so a leaked store dump cannot be
    replayed as cookies. Records carry only the identity key.
  - Manager: stateless. Every [Manager.Resolve] re-reads the identity, so a
    deleted identity ends its sessions immediately.
  - Guard: the single predicate protected handlers call on every request.

Lifecycle: Unauthenticated -> Establish -> Authenticated -> Destroy or TTL
expiry -> Unauthenticated.
*/
package session

import (
	"context"
	"errors"
	"time"
)

// # Errors

var (
	// ErrNoSession means the token is empty, unknown, expired or points at a
	// missing identity.
	ErrNoSession = errors.New("session: no active session")

	// ErrLoginRequired is returned by the guard for unauthenticated callers.
	ErrLoginRequired = errors.New("session: login required")

	// ErrStoreUnavailable wraps session store I/O failures.
	ErrStoreUnavailable = errors.New("session: store unavailable")
)

// # Data Structures

// Record is the server-side half of a session.
type Record struct {
	IdentityID string    `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (record *Record) Expired(now time.Time) bool {
	return !now.Before(record.ExpiresAt)
}

// Issued is what the client receives from [Manager.Establish].
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// # Store Contract

// Store persists session records by token digest. Implementations expire
// records on their own after ttl.
type Store interface {

	// Save writes record under key with the given lifetime.
	Save(context context.Context, key string, record Record, ttl time.Duration) error

	// Load returns the record for key or [ErrNoSession].
	Load(context context.Context, key string) (*Record, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(context context.Context, key string) error

	// Ping reports store reachability for readiness probes.
	Ping(context context.Context) error
}
