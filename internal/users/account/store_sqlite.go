// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/secrets/internal/platform/database/schema"
	"github.com/taibuivan/secrets/pkg/uuid"
)

// SQLiteRepository implements [Repository] on an embedded SQLite database.
// Timestamps are stored as unix milliseconds.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps a handle opened by the sqlite platform package.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

var liteAccount = schema.LiteAccount

// sqlRow is satisfied by *sql.Row.
type sqlRow interface {
	Scan(dest ...any) error
}

// FindByEmail retrieves an identity by its canonical email.
func (repository *SQLiteRepository) FindByEmail(context context.Context, email string) (*Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`,
		liteAccount.SelectList(), liteAccount.Table, liteAccount.Email)

	identity, err := scanSQLiteIdentity(repository.db.QueryRowContext(context, query, email))
	if err != nil {
		return nil, storeError("sqlite_account_repo_find_by_email", err)
	}
	return identity, nil
}

// FindByID retrieves an identity by primary key.
func (repository *SQLiteRepository) FindByID(context context.Context, id string) (*Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`,
		liteAccount.SelectList(), liteAccount.Table, liteAccount.ID)

	identity, err := scanSQLiteIdentity(repository.db.QueryRowContext(context, query, id))
	if err != nil {
		return nil, storeError("sqlite_account_repo_find_by_id", err)
	}
	return identity, nil
}

// Create inserts a new identity. The unique index on email decides races.
func (repository *SQLiteRepository) Create(context context.Context, email string, passwordHash *string) (*Identity, error) {
	now := repository.now().UTC().Truncate(time.Millisecond)
	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?)`,
		liteAccount.Table,
		liteAccount.ID, liteAccount.Email, liteAccount.PasswordHash, liteAccount.CreatedAt, liteAccount.UpdatedAt,
	)

	_, err := repository.db.ExecContext(context, query,
		identity.ID, identity.Email, identity.PasswordHash, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, storeError("sqlite_account_repo_create", err)
	}
	return identity, nil
}

// UpdateSecret overwrites the secret column and bumps updatedat.
func (repository *SQLiteRepository) UpdateSecret(context context.Context, id string, secret string) (*Identity, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ? WHERE %s = ?`,
		liteAccount.Table, liteAccount.Secret, liteAccount.UpdatedAt, liteAccount.ID)

	result, err := repository.db.ExecContext(context, query, secret, repository.now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, storeError("sqlite_account_repo_update_secret", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, storeError("sqlite_account_repo_update_secret", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return repository.FindByID(context, id)
}

// Ping checks that the database handle is usable.
func (repository *SQLiteRepository) Ping(context context.Context) error {
	if err := repository.db.PingContext(context); err != nil {
		return fmt.Errorf("sqlite_account_repo_ping_failed: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func scanSQLiteIdentity(row sqlRow) (*Identity, error) {
	var (
		identity  Identity
		createdAt int64
		updatedAt int64
	)

	err := row.Scan(
		&identity.ID, &identity.Email, &identity.PasswordHash, &identity.Secret,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.CreatedAt = time.UnixMilli(createdAt).UTC()
	identity.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &identity, nil
}
