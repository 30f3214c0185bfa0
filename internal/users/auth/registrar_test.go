// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secrets/internal/users/auth"
)

/*
TestRegistrar_Register stores a canonical email and a self-describing digest.
*/
func TestRegistrar_Register(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	registrar := auth.NewRegistrar(store, newHasher())

	// 1. Create
	identity, err := registrar.Register(ctx, " New@X.io ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "new@x.io", identity.Email)
	require.True(t, identity.HasPassword())
	assert.Contains(t, *identity.PasswordHash, "$2a$")
	assert.NotContains(t, *identity.PasswordHash, "correct horse")

	// 2. Same email in another case is a duplicate
	_, err = registrar.Register(ctx, "NEW@x.io", "another password")
	assert.ErrorIs(t, err, auth.ErrDuplicateRegistration)
	assert.True(t, auth.IsRecoverable(err))
}

/*
TestRegistrar_ConcurrentRegistration lets many requests race for one email.
*/
func TestRegistrar_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	registrar := auth.NewRegistrar(newStore(t), newHasher())

	const racers = 6
	results := make([]error, racers)

	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = registrar.Register(ctx, "race@x.io", "correct horse")
		}()
	}
	wg.Wait()

	var winners int
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, auth.ErrDuplicateRegistration)
	}
	assert.Equal(t, 1, winners)
}

/*
TestRegistrar_StoreUnavailable wraps store failures.
*/
func TestRegistrar_StoreUnavailable(t *testing.T) {
	_, err := auth.NewRegistrar(unavailableStore{}, newHasher()).Register(context.Background(), "a@x.io", "correct horse")
	assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
	assert.False(t, auth.IsRecoverable(err))
}
