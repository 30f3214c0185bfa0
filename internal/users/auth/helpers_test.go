// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/secrets/internal/platform/sec"
	"github.com/taibuivan/secrets/internal/platform/sqlite"
	"github.com/taibuivan/secrets/internal/users/account"
	"github.com/taibuivan/secrets/internal/users/auth/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *account.SQLiteRepository {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return account.NewSQLiteRepository(db)
}

func newHasher() *sec.PasswordHasher {
	return sec.NewPasswordHasher(&sec.Bcrypt{Cost: bcrypt.MinCost}, sec.NewPool(4))
}

// unavailableStore fails every call as an unreachable database would.
type unavailableStore struct{}

func (unavailableStore) FindByEmail(context.Context, string) (*account.Identity, error) {
	return nil, account.ErrStoreUnavailable
}

func (unavailableStore) Create(context.Context, string, *string) (*account.Identity, error) {
	return nil, account.ErrStoreUnavailable
}

// fakeProvider stands in for an identity provider. Exchange succeeds for
// goodCode and records the PKCE verifier it was handed.
type fakeProvider struct {
	name    string
	profile provider.Profile

	mu        sync.Mutex
	verifiers []string
}

const goodCode = "good-code"

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example/authorize?" + url.Values{
		"state":          {state},
		"code_challenge": {verifier + "-challenge"},
	}.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*provider.Profile, error) {
	p.mu.Lock()
	p.verifiers = append(p.verifiers, verifier)
	p.mu.Unlock()

	if code != goodCode {
		return nil, errors.New("fake: bad code")
	}
	profile := p.profile
	profile.Provider = p.name
	return &profile, nil
}

func (p *fakeProvider) lastVerifier() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.verifiers) == 0 {
		return ""
	}
	return p.verifiers[len(p.verifiers)-1]
}
