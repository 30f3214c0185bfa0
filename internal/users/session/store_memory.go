// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/secrets/internal/platform/ctxutil"
)

// DefaultMemoryCapacity bounds a [MemoryStore] created with a zero capacity.
const DefaultMemoryCapacity = 10_000

// MemoryStore implements [Store] in process memory. It backs single-instance
// deployments (SESSION_STORE=memory) and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	capacity int
	now      func() time.Time

	evictions int64
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store holding at most capacity sessions.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

// Save stores record until ttl elapses. When full, expired entries are swept
// first, then an arbitrary live entry is evicted and the eviction is logged.
func (store *MemoryStore) Save(context context.Context, key string, record Record, ttl time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	evicted := 0
	if _, exists := store.entries[key]; !exists && len(store.entries) >= store.capacity {
		store.sweepLocked(now)
		for victim := range store.entries {
			if len(store.entries) < store.capacity {
				break
			}
			delete(store.entries, victim)
			evicted++
		}
	}

	store.entries[key] = memoryEntry{record: record, expiresAt: now.Add(ttl)}

	if evicted > 0 {
		total := atomic.AddInt64(&store.evictions, int64(evicted))
		ctxutil.GetLogger(context).Warn("session_store_evicted",
			slog.Int("evicted", evicted),
			slog.Int64("total_evictions", total),
			slog.Int("capacity", store.capacity),
		)
	}
	return nil
}

// Load returns the record for key, or ErrNoSession when absent or expired.
func (store *MemoryStore) Load(_ context.Context, key string) (*Record, error) {
	store.mu.RLock()
	entry, exists := store.entries[key]
	store.mu.RUnlock()

	if !exists {
		return nil, ErrNoSession
	}

	if !store.now().Before(entry.expiresAt) {
		store.mu.Lock()
		delete(store.entries, key)
		store.mu.Unlock()
		return nil, ErrNoSession
	}

	record := entry.record
	return &record, nil
}

// Delete removes key.
func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.entries, key)
	return nil
}

// Ping always succeeds.
func (store *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}

func (store *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range store.entries {
		if !now.Before(entry.expiresAt) {
			delete(store.entries, key)
		}
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
