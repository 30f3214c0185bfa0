// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secrets/internal/platform/sqlite"
	"github.com/taibuivan/secrets/internal/users/account"
)

func newSQLiteRepository(t *testing.T) *account.SQLiteRepository {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "accounts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return account.NewSQLiteRepository(db)
}

func ptr(value string) *string { return &value }

/*
TestSQLiteRepository_CreateAndFind stores a local identity and reads it back
by both keys.
*/
func TestSQLiteRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	// 1. Create
	created, err := repository.Create(ctx, "a@x.io", ptr("digest"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.Secret)

	// 2. Lookup by email
	byEmail, err := repository.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	require.NotNil(t, byEmail.PasswordHash)
	assert.Equal(t, "digest", *byEmail.PasswordHash)
	assert.Equal(t, created.CreatedAt, byEmail.CreatedAt)

	// 3. Lookup by id
	byID, err := repository.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", byID.Email)
}

/*
TestSQLiteRepository_DelegatedIdentity stores an identity with no password.
*/
func TestSQLiteRepository_DelegatedIdentity(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	created, err := repository.Create(ctx, "g@x.io", nil)
	require.NoError(t, err)

	found, err := repository.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found.PasswordHash)
	assert.False(t, found.HasPassword())
}

/*
TestSQLiteRepository_NotFound returns the sentinel for unknown keys.
*/
func TestSQLiteRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	_, err := repository.FindByEmail(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = repository.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = repository.UpdateSecret(ctx, "missing", "s")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

/*
TestSQLiteRepository_DuplicateEmail rejects a second create for one email.
*/
func TestSQLiteRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	_, err := repository.Create(ctx, "a@x.io", ptr("one"))
	require.NoError(t, err)

	_, err = repository.Create(ctx, "a@x.io", ptr("two"))
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)

	// The original credential is untouched
	found, err := repository.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "one", *found.PasswordHash)
}

/*
TestSQLiteRepository_ConcurrentCreate races many creates for one email and
expects exactly one winner.
*/
func TestSQLiteRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	const racers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		winners    int
		duplicates int
	)

	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repository.Create(ctx, "race@x.io", ptr("digest"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case assert.ErrorIs(t, err, account.ErrDuplicateEmail):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, racers-1, duplicates)
}

/*
TestSQLiteRepository_UpdateSecret overwrites the secret on each call.
*/
func TestSQLiteRepository_UpdateSecret(t *testing.T) {
	ctx := context.Background()
	repository := newSQLiteRepository(t)

	created, err := repository.Create(ctx, "a@x.io", ptr("digest"))
	require.NoError(t, err)

	updated, err := repository.UpdateSecret(ctx, created.ID, "first")
	require.NoError(t, err)
	require.NotNil(t, updated.Secret)
	assert.Equal(t, "first", *updated.Secret)

	updated, err = repository.UpdateSecret(ctx, created.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", *updated.Secret)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	assert.NoError(t, repository.Ping(ctx))
}
