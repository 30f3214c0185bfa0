// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the credential store: the durable record of every identity
that can sign in, locally or through an identity provider.

# Architecture

  - Entity: [Identity], keyed by a UUIDv7 and unique by canonical email.
  - Contract: [Repository], implemented for PostgreSQL (pgx) and SQLite (modernc).
  - Errors: storage failures surface as [ErrNotFound], [ErrDuplicateEmail]
    or [ErrStoreUnavailable] regardless of the backend.

Uniqueness is enforced only by the database constraint. Callers never
check-then-insert under a lock; the loser of a race receives [ErrDuplicateEmail].
*/
package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// # Domain Entities

// Identity is a person known to the system.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// PasswordHash is nil for identities that only ever signed in through a
	// delegated provider. Such identities cannot use the local login path.
	PasswordHash *string `json:"-"`

	// Secret is the protected resource. nil until the first submission.
	Secret *string `json:"secret,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPassword reports whether the identity can authenticate locally.
func (identity *Identity) HasPassword() bool {
	return identity.PasswordHash != nil && *identity.PasswordHash != ""
}

// # Errors

var (
	// ErrNotFound means no identity matched the lookup.
	ErrNotFound = errors.New("account: identity not found")

	// ErrDuplicateEmail means the unique email constraint rejected a create.
	ErrDuplicateEmail = errors.New("account: email already registered")

	// ErrStoreUnavailable wraps every I/O failure of the backend.
	ErrStoreUnavailable = errors.New("account: credential store unavailable")
)

// # Email Canonicalization

var lowerCaser = cases.Lower(language.Und)

// NormalizeEmail returns the canonical form used for storage and lookup:
// trimmed, NFC-normalized and lower-cased.
func NormalizeEmail(email string) string {
	return lowerCaser.String(norm.NFC.String(strings.TrimSpace(email)))
}

// # Field Identifiers

// Form field names shared by the handlers that read identity input.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldSecret   = "secret"
)
