// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/secrets/internal/platform/database/schema"
	"github.com/taibuivan/secrets/internal/platform/dberr"
	"github.com/taibuivan/secrets/pkg/uuid"
)

// # Repository Implementations

// PostgresRepository implements [Repository] on the users.account table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new pgx-backed credential store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var pgAccount = schema.UserAccount

/*
FindByEmail retrieves an identity by its canonical email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Identity: Hydrated entity
  - error: ErrNotFound or ErrStoreUnavailable
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		pgAccount.SelectList(), pgAccount.Table, pgAccount.Email)

	identity, err := scanPostgresIdentity(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, storeError("postgres_account_repo_find_by_email", err)
	}
	return identity, nil
}

/*
FindByID retrieves an identity by primary key.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Identity: Hydrated entity
  - error: ErrNotFound or ErrStoreUnavailable
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Identity, error) {

	// A malformed id cannot match the UUID column; skip the round trip
	// and the cast error it would produce.
	if !uuid.Valid(id) {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		pgAccount.SelectList(), pgAccount.Table, pgAccount.ID)

	identity, err := scanPostgresIdentity(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, storeError("postgres_account_repo_find_by_id", err)
	}
	return identity, nil
}

/*
Create inserts a new identity. The unique email constraint decides races.

Parameters:
  - context: context.Context
  - email: string (canonical)
  - passwordHash: *string

Returns:
  - *Identity: The stored entity with server-side timestamps
  - error: ErrDuplicateEmail or ErrStoreUnavailable
*/
func (repository *PostgresRepository) Create(context context.Context, email string, passwordHash *string) (*Identity, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING %s`,
		pgAccount.Table,
		pgAccount.ID, pgAccount.Email, pgAccount.PasswordHash, pgAccount.CreatedAt, pgAccount.UpdatedAt,
		pgAccount.SelectList(),
	)

	identity, err := scanPostgresIdentity(repository.pool.QueryRow(context, query, uuid.New(), email, passwordHash))
	if err != nil {
		return nil, storeError("postgres_account_repo_create", err)
	}
	return identity, nil
}

/*
UpdateSecret overwrites the secret column and bumps updatedat.

Parameters:
  - context: context.Context
  - id: string
  - secret: string

Returns:
  - *Identity: The updated entity
  - error: ErrNotFound or ErrStoreUnavailable
*/
func (repository *PostgresRepository) UpdateSecret(context context.Context, id string, secret string) (*Identity, error) {
	if !uuid.Valid(id) {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		pgAccount.Table, pgAccount.Secret, pgAccount.UpdatedAt,
		pgAccount.ID,
		pgAccount.SelectList(),
	)

	identity, err := scanPostgresIdentity(repository.pool.QueryRow(context, query, id, secret))
	if err != nil {
		return nil, storeError("postgres_account_repo_update_secret", err)
	}
	return identity, nil
}

// Ping checks pool connectivity.
func (repository *PostgresRepository) Ping(context context.Context) error {
	if err := repository.pool.Ping(context); err != nil {
		return fmt.Errorf("postgres_account_repo_ping_failed: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// # Internal Helpers

func scanPostgresIdentity(row pgx.Row) (*Identity, error) {
	var identity Identity
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.PasswordHash, &identity.Secret,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// storeError maps a driver error onto the package sentinels, keeping the
// original error in the chain for logging.
func storeError(operation string, err error) error {
	switch dberr.Classify(err) {
	case dberr.KindNotFound:
		return ErrNotFound
	case dberr.KindUniqueViolation:
		return fmt.Errorf("%s_failed: %w: %w", operation, ErrDuplicateEmail, err)
	default:
		return fmt.Errorf("%s_failed: %w: %w", operation, ErrStoreUnavailable, err)
	}
}
