// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRetention is how long a RedisStore keeps an entry after it was written. It is longer
// than DefaultTTL so that expired entries are still available as stale fallback.
const DefaultRetention = 24 * time.Hour

// RedisStore is a Store that keeps JSON encoded entries in Redis. It allows several processes
// to share one cache.
type RedisStore[T any] struct {
	client    redis.Cmdable
	prefix    string
	retention time.Duration
}

// NewRedisStore returns a RedisStore using client. Keys are prefixed with prefix.
func NewRedisStore[T any](client redis.Cmdable, prefix string, retention time.Duration) *RedisStore[T] {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore[T]{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

func (r *RedisStore[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	var entry Entry[T]
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("failed to get cache entry from redis: %w", err)
	}
	if err = json.Unmarshal(data, &entry); err != nil {
		return entry, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return entry, true, nil
}

func (r *RedisStore[T]) Set(ctx context.Context, entry Entry[T]) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err = r.client.Set(ctx, r.key(entry.Key), data, r.retention).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry in redis: %w", err)
	}
	return nil
}

func (r *RedisStore[T]) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry from redis: %w", err)
	}
	return nil
}

func (r *RedisStore[T]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}
