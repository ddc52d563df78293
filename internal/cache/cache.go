// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package cache implements the short-lived memoization layer in front of the upstream
// providers. Entries expire logically after the TTL but are kept around, so that a stale value
// can be served when the upstream fails.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/logger"
)

// DefaultTTL is the age after which a cache entry is no longer served on its own.
const DefaultTTL = 5 * time.Minute

// Status describes where a value returned by WithCache came from.
type Status int

const (
	// StatusFresh means the producer was called and succeeded.
	StatusFresh Status = iota
	// StatusHit means a live entry was returned without calling the producer.
	StatusHit
	// StatusStale means the producer failed and an expired entry was returned instead.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusHit:
		return "hit"
	case StatusStale:
		return "stale"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Entry is a cached value together with the time it was stored.
type Entry[T any] struct {
	Key      string    `json:"key"`
	Value    T         `json:"value"`
	CachedAt time.Time `json:"cachedAt"`
}

// Store is the storage backend of a Cache. A Get for an unknown key returns found == false and
// no error.
type Store[T any] interface {
	Get(ctx context.Context, key string) (entry Entry[T], found bool, err error)
	Set(ctx context.Context, entry Entry[T]) error
	Invalidate(ctx context.Context, key string) error
}

// Producer computes the value for a cache key.
type Producer[T any] func(ctx context.Context) (T, error)

type options struct {
	clock clockwork.Clock
	ttl   time.Duration
}

// Option configures a Cache.
type Option func(*options)

// WithClock sets the clock used to timestamp and age entries.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// Cache wraps producer calls with a Store.
type Cache[T any] struct {
	store  Store[T]
	clock  clockwork.Clock
	ttl    time.Duration
	logger *logger.Logger
	group  singleflight.Group
}

// New returns a Cache that keeps its entries in store.
func New[T any](store Store[T], log *logger.Logger, opts ...Option) *Cache[T] {
	o := &options{
		clock: clockwork.NewRealClock(),
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Cache[T]{
		store:  store,
		clock:  o.clock,
		ttl:    o.ttl,
		logger: log,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// WithCache returns the live entry for key if there is one. Otherwise it calls producer and
// stores its result. If producer fails, an expired entry of any age is returned with
// StatusStale. Only if there is none the producer error is returned. Concurrent misses for the
// same key share a single producer call.
func (c *Cache[T]) WithCache(ctx context.Context, key string, producer Producer[T]) (T, Status, error) {
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("failed to read from cache store, treating as miss", slog.String("key", key),
			logger.Err(err))
		found = false
	}
	if found && c.clock.Since(entry.CachedAt) < c.ttl {
		return entry.Value, StatusHit, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		value, err := producer(ctx)
		if err != nil {
			return value, err
		}
		newEntry := Entry[T]{Key: key, Value: value, CachedAt: c.clock.Now()}
		if err = c.store.Set(ctx, newEntry); err != nil {
			c.logger.Warn("failed to write to cache store", slog.String("key", key), logger.Err(err))
		}
		return value, nil
	})
	if err != nil {
		if found {
			c.logger.Debug("producer failed, serving stale cache entry", slog.String("key", key),
				slog.Duration("age", c.clock.Since(entry.CachedAt)), logger.Err(err))
			return entry.Value, StatusStale, nil
		}
		var zero T
		return zero, StatusFresh, err
	}

	value, _ := val.(T)
	return value, StatusFresh, nil
}

// Invalidate removes the entry for key from the store.
func (c *Cache[T]) Invalidate(ctx context.Context, key string) error {
	return c.store.Invalidate(ctx, key)
}

// Key returns the cache key for a provider and a coordinate quantized to 0.01°.
func Key(provider string, coord geo.Coordinate) string {
	lat, lon := coord.Quantize()
	return fmt.Sprintf("%s:%d:%d", provider, lat, lon)
}
