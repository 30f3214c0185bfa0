// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import "context"

// # Repository Contracts

// Repository defines the persistence contract for identities.
//
// Every method is atomic at single-record level. Emails passed in must
// already be canonical (see [NormalizeEmail]).
type Repository interface {

	/*
		FindByEmail returns the identity with the given canonical email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Identity: Hydrated entity
		  - error: ErrNotFound or ErrStoreUnavailable
	*/
	FindByEmail(context context.Context, email string) (*Identity, error)

	/*
		FindByID returns the identity with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Identity: Hydrated entity
		  - error: ErrNotFound or ErrStoreUnavailable
	*/
	FindByID(context context.Context, id string) (*Identity, error)

	/*
		Create inserts a new identity and returns it with ID and timestamps set.

		Parameters:
		  - context: context.Context
		  - email: string (canonical)
		  - passwordHash: *string (nil for delegated-only identities)

		Returns:
		  - *Identity: The stored entity
		  - error: ErrDuplicateEmail or ErrStoreUnavailable
	*/
	Create(context context.Context, email string, passwordHash *string) (*Identity, error)

	/*
		UpdateSecret replaces the identity's secret and returns the updated entity.

		Parameters:
		  - context: context.Context
		  - id: string
		  - secret: string

		Returns:
		  - *Identity: The updated entity
		  - error: ErrNotFound or ErrStoreUnavailable
	*/
	UpdateSecret(context context.Context, id string, secret string) (*Identity, error)

	/*
		Ping reports whether the backend is reachable. Used by readiness probes.
	*/
	Ping(context context.Context) error
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
