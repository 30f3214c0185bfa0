// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/secrets/internal/platform/constants"
)

// RedisStore implements [Store] on Redis. Expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: constants.RedisPrefixSession,
	}
}

func (store *RedisStore) key(digest string) string {
	return store.prefix + digest
}

/*
Save stores the record as JSON with the session TTL.

Parameters:
  - context: context.Context
  - key: string (token digest)
  - record: Record
  - ttl: time.Duration

Returns:
  - error: Serialization or connectivity failures
*/
func (store *RedisStore) Save(context context.Context, key string, record Record, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis_session_save_failed: non-positive ttl %s", ttl)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis_session_save_failed: %w", err)
	}

	if err := store.client.Set(context, store.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_save_failed: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

/*
Load retrieves a record.

Description: Returns ErrNoSession if the key is absent or expired.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - *Record: Stored record
  - error: ErrNoSession or connectivity errors
*/
func (store *RedisStore) Load(context context.Context, key string) (*Record, error) {
	payload, err := store.client.Get(context, store.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("redis_session_load_failed: %w: %w", ErrStoreUnavailable, err)
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		// A corrupt record authenticates nobody.
		return nil, ErrNoSession
	}
	return &record, nil
}

// Delete removes the key from Redis.
func (store *RedisStore) Delete(context context.Context, key string) error {
	if err := store.client.Del(context, store.key(key)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (store *RedisStore) Ping(context context.Context) error {
	if err := store.client.Ping(context).Err(); err != nil {
		return fmt.Errorf("redis_session_ping_failed: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
