// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/session"
)

// # Test Doubles

type identityTable struct {
	mu   sync.Mutex
	rows map[string]*account.Identity
	err  error
}

func newIdentityTable(identities ...*account.Identity) *identityTable {
	table := &identityTable{rows: make(map[string]*account.Identity)}
	for _, identity := range identities {
		table.rows[identity.ID] = identity
	}
	return table
}

func (table *identityTable) FindByID(_ context.Context, id string) (*account.Identity, error) {
	table.mu.Lock()
	defer table.mu.Unlock()
	if table.err != nil {
		return nil, table.err
	}
	identity, ok := table.rows[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return identity, nil
}

func (table *identityTable) remove(id string) {
	table.mu.Lock()
	defer table.mu.Unlock()
	delete(table.rows, id)
}

type failingStore struct{ session.MemoryStore }

func (*failingStore) Load(context.Context, string) (*session.Record, error) {
	return nil, session.ErrStoreUnavailable
}

var alice = &account.Identity{ID: "0190a000-0000-7000-8000-000000000001", Email: "a@x.io"}

/*
TestManager_Lifecycle walks a session through establish, resolve and destroy.
*/
func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(0)
	manager := session.NewManager(store, newIdentityTable(alice), time.Hour)

	// 1. Establish issues an opaque token
	issued, err := manager.Establish(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, issued.Token, 43) // 32 bytes, unpadded base64url
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)
	assert.Equal(t, 1, store.Len())

	// 2. Resolve returns the identity
	identity, err := manager.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, identity.ID)

	// 3. Destroy is idempotent
	require.NoError(t, manager.Destroy(ctx, issued.Token))
	require.NoError(t, manager.Destroy(ctx, issued.Token))

	_, err = manager.Resolve(ctx, issued.Token)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

/*
TestManager_FreshTokens ensures each Establish yields a distinct token.
*/
func TestManager_FreshTokens(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), 0)
	assert.Equal(t, constants.DefaultSessionTTL, manager.TTL())

	first, err := manager.Establish(ctx, alice)
	require.NoError(t, err)
	second, err := manager.Establish(ctx, alice)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

/*
TestManager_Rotate destroys the presented token before issuing a new one.
*/
func TestManager_Rotate(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), time.Hour)

	planted, err := manager.Establish(ctx, alice)
	require.NoError(t, err)

	rotated, err := manager.Rotate(ctx, planted.Token, alice)
	require.NoError(t, err)
	assert.NotEqual(t, planted.Token, rotated.Token)

	_, err = manager.Resolve(ctx, planted.Token)
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = manager.Resolve(ctx, rotated.Token)
	assert.NoError(t, err)

	// Rotating without a previous token is a plain Establish
	_, err = manager.Rotate(ctx, "", alice)
	assert.NoError(t, err)
}

/*
TestManager_ResolveRejections covers every way a token fails to resolve.
*/
func TestManager_ResolveRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), time.Hour)
		_, err := manager.Resolve(ctx, "")
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("unknown token", func(t *testing.T) {
		manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), time.Hour)
		_, err := manager.Resolve(ctx, "forged")
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("identity deleted", func(t *testing.T) {
		store := session.NewMemoryStore(0)
		table := newIdentityTable(alice)
		manager := session.NewManager(store, table, time.Hour)

		issued, err := manager.Establish(ctx, alice)
		require.NoError(t, err)

		table.remove(alice.ID)
		_, err = manager.Resolve(ctx, issued.Token)
		assert.ErrorIs(t, err, session.ErrNoSession)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("credential store failure", func(t *testing.T) {
		table := newIdentityTable(alice)
		manager := session.NewManager(session.NewMemoryStore(0), table, time.Hour)

		issued, err := manager.Establish(ctx, alice)
		require.NoError(t, err)

		table.err = account.ErrStoreUnavailable
		_, err = manager.Resolve(ctx, issued.Token)
		assert.ErrorIs(t, err, account.ErrStoreUnavailable)
		assert.False(t, errors.Is(err, session.ErrNoSession))
	})

	t.Run("expired", func(t *testing.T) {
		manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), 10*time.Millisecond)

		issued, err := manager.Establish(ctx, alice)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		_, err = manager.Resolve(ctx, issued.Token)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

/*
TestManager_EstablishRequiresIdentity refuses to bind an unsaved identity.
*/
func TestManager_EstablishRequiresIdentity(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(), time.Hour)

	_, err := manager.Establish(context.Background(), &account.Identity{})
	assert.Error(t, err)

	_, err = manager.Establish(context.Background(), nil)
	assert.Error(t, err)
}

/*
TestGuard admits resolved tokens and denies everything else with ErrLoginRequired.
*/
func TestGuard(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryStore(0), newIdentityTable(alice), time.Hour)
	guard := session.NewGuard(manager)

	issued, err := manager.Establish(ctx, alice)
	require.NoError(t, err)

	// 1. Authenticated
	assert.True(t, guard.IsAuthenticated(ctx, issued.Token))
	identity, err := guard.RequireAuthenticated(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, identity.Email)

	// 2. Anonymous
	assert.False(t, guard.IsAuthenticated(ctx, ""))
	_, err = guard.RequireAuthenticated(ctx, "")
	assert.ErrorIs(t, err, session.ErrLoginRequired)

	// 3. Store failure also denies
	failing := session.NewGuard(session.NewManager(&failingStore{}, newIdentityTable(alice), time.Hour))
	_, err = failing.RequireAuthenticated(ctx, issued.Token)
	assert.ErrorIs(t, err, session.ErrLoginRequired)
}

/*
TestCookies checks the attributes of issued and cleared session cookies.
*/
func TestCookies(t *testing.T) {
	options := session.NewCookieOptions(true)
	issued := session.Issued{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}

	// 1. Set
	recorder := httptest.NewRecorder()
	session.SetCookie(recorder, issued, options)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, "/", cookies[0].Path)

	// 2. Read back
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookies[0])
	assert.Equal(t, "tok", session.TokenFromRequest(request, options))
	assert.Empty(t, session.TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), options))

	// 3. Clear
	recorder = httptest.NewRecorder()
	session.ClearCookie(recorder, options)
	cleared := recorder.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
}
