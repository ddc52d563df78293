// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/logger"
)

var errProducer = errors.New("producer intentionally failed")

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}

type counter struct {
	calls atomic.Int32
	value int
	fail  atomic.Bool
}

func (c *counter) produce(context.Context) (int, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return 0, errProducer
	}
	return c.value, nil
}

func TestCache_WithCache(t *testing.T) {
	t.Run("a miss calls the producer and stores the result", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		store := NewMemoryStore[int]()
		cache := New[int](store, testLogger(), WithClock(clock))
		prod := &counter{value: 42}

		val, status, err := cache.WithCache(t.Context(), "key", prod.produce)
		if err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		if val != 42 || status != StatusFresh {
			t.Errorf("expected fresh value 42, got %d (%s)", val, status)
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 stored entry, got %d", store.Len())
		}
		entry, found, _ := store.Get(t.Context(), "key")
		if !found || !entry.CachedAt.Equal(clock.Now()) {
			t.Errorf("expected entry to be stored at %s, got %+v", clock.Now(), entry)
		}
	})
	t.Run("a live entry is served without calling the producer", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		cache := New[int](NewMemoryStore[int](), testLogger(), WithClock(clock))
		prod := &counter{value: 42}

		if _, _, err := cache.WithCache(t.Context(), "key", prod.produce); err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		clock.Advance(DefaultTTL - time.Second)
		prod.value = 7
		val, status, err := cache.WithCache(t.Context(), "key", prod.produce)
		if err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		if val != 42 || status != StatusHit {
			t.Errorf("expected cached value 42, got %d (%s)", val, status)
		}
		if prod.calls.Load() != 1 {
			t.Errorf("expected producer to be called once, got %d", prod.calls.Load())
		}
	})
	t.Run("an expired entry is replaced on a successful fetch", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		cache := New[int](NewMemoryStore[int](), testLogger(), WithClock(clock))
		prod := &counter{value: 42}

		if _, _, err := cache.WithCache(t.Context(), "key", prod.produce); err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		clock.Advance(DefaultTTL + time.Second)
		prod.value = 7
		val, status, err := cache.WithCache(t.Context(), "key", prod.produce)
		if err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		if val != 7 || status != StatusFresh {
			t.Errorf("expected fresh value 7, got %d (%s)", val, status)
		}
	})
	t.Run("an entry exactly at the TTL is expired", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		cache := New[int](NewMemoryStore[int](), testLogger(), WithClock(clock))
		prod := &counter{value: 1}
		_, _, _ = cache.WithCache(t.Context(), "key", prod.produce)
		clock.Advance(DefaultTTL)
		_, status, _ := cache.WithCache(t.Context(), "key", prod.produce)
		if status != StatusFresh {
			t.Errorf("expected fresh fetch, got %s", status)
		}
	})
	t.Run("an expired entry is served if the producer fails", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		cache := New[int](NewMemoryStore[int](), testLogger(), WithClock(clock))
		prod := &counter{value: 42}

		if _, _, err := cache.WithCache(t.Context(), "key", prod.produce); err != nil {
			t.Fatalf("failed to get value: %s", err)
		}
		clock.Advance(24 * time.Hour)
		prod.fail.Store(true)
		val, status, err := cache.WithCache(t.Context(), "key", prod.produce)
		if err != nil {
			t.Fatalf("expected stale value, got error: %s", err)
		}
		if val != 42 || status != StatusStale {
			t.Errorf("expected stale value 42, got %d (%s)", val, status)
		}
	})
	t.Run("the producer error is returned without any entry", func(t *testing.T) {
		cache := New[int](NewMemoryStore[int](), testLogger())
		prod := &counter{}
		prod.fail.Store(true)
		_, _, err := cache.WithCache(t.Context(), "key", prod.produce)
		if !errors.Is(err, errProducer) {
			t.Errorf("expected error to be %s, got %v", errProducer, err)
		}
	})
	t.Run("a custom TTL is honored", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		cache := New[int](NewMemoryStore[int](), testLogger(), WithClock(clock), WithTTL(time.Minute))
		if cache.TTL() != time.Minute {
			t.Fatalf("expected TTL of 1m, got %s", cache.TTL())
		}
		prod := &counter{value: 1}
		_, _, _ = cache.WithCache(t.Context(), "key", prod.produce)
		clock.Advance(time.Minute * 2)
		_, status, _ := cache.WithCache(t.Context(), "key", prod.produce)
		if status != StatusFresh {
			t.Errorf("expected fresh fetch, got %s", status)
		}
	})
	t.Run("concurrent misses share one producer call", func(t *testing.T) {
		cache := New[int](NewMemoryStore[int](), testLogger())
		release := make(chan struct{})
		var calls atomic.Int32
		producer := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 5, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 5)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _, _ = cache.WithCache(t.Context(), "key", producer)
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		if calls.Load() < 1 || calls.Load() > int32(len(results)) {
			t.Errorf("unexpected number of producer calls: %d", calls.Load())
		}
		for i, res := range results {
			if res != 5 {
				t.Errorf("result %d: expected 5, got %d", i, res)
			}
		}
	})
	t.Run("invalidate removes the entry", func(t *testing.T) {
		store := NewMemoryStore[int]()
		cache := New[int](store, testLogger())
		prod := &counter{value: 1}
		_, _, _ = cache.WithCache(t.Context(), "key", prod.produce)
		if err := cache.Invalidate(t.Context(), "key"); err != nil {
			t.Fatalf("failed to invalidate entry: %s", err)
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d entries", store.Len())
		}
		prod.fail.Store(true)
		if _, _, err := cache.WithCache(t.Context(), "key", prod.produce); err == nil {
			t.Error("expected error after invalidation")
		}
	})
}

func TestCache_RedisStore(t *testing.T) {
	t.Run("an unreachable redis is treated as a miss", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		t.Cleanup(func() { _ = client.Close() })

		cache := New[int](NewRedisStore[int](client, "test", 0), testLogger())
		prod := &counter{value: 9}
		val, status, err := cache.WithCache(t.Context(), "key", prod.produce)
		if err != nil {
			t.Fatalf("expected value despite store failure, got: %s", err)
		}
		if val != 9 || status != StatusFresh {
			t.Errorf("expected fresh value 9, got %d (%s)", val, status)
		}
		if err = cache.Invalidate(t.Context(), "key"); err == nil {
			t.Error("expected invalidate to fail")
		}
	})
	t.Run("keys are prefixed", func(t *testing.T) {
		store := NewRedisStore[int](nil, "aurora", time.Hour)
		if got := store.key("a:b"); got != "aurora:a:b" {
			t.Errorf("unexpected key %q", got)
		}
		if store.retention != time.Hour {
			t.Errorf("expected retention of 1h, got %s", store.retention)
		}
		store = NewRedisStore[int](nil, "", 0)
		if got := store.key("a:b"); got != "a:b" {
			t.Errorf("unexpected key %q", got)
		}
		if store.retention != DefaultRetention {
			t.Errorf("expected default retention, got %s", store.retention)
		}
	})
}

func TestKey(t *testing.T) {
	a := Key("noaa", geo.Coordinate{Lat: 66.5039, Lon: 25.7294})
	b := Key("noaa", geo.Coordinate{Lat: 66.5012, Lon: 25.7321})
	if a != b {
		t.Errorf("expected close coordinates to share a key: %s vs %s", a, b)
	}
	if a != "noaa:6650:2573" {
		t.Errorf("unexpected key %s", a)
	}
	if Key("open-meteo", geo.Coordinate{Lat: 66.5039, Lon: 25.7294}) == a {
		t.Error("expected providers to use distinct keys")
	}
}

func TestStatus_String(t *testing.T) {
	for status, want := range map[Status]string{StatusFresh: "fresh", StatusHit: "hit", StatusStale: "stale",
		Status(9): "Status(9)"} {
		if status.String() != want {
			t.Errorf("expected %q, got %q", want, status.String())
		}
	}
}
