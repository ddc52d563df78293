// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package clouds provides the cloud cover over the nocturnal viewing window.
package clouds

import (
	"context"
	"math"
	"time"

	"github.com/wneessen/aurora-radar/internal/cache"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/vartype"
)

const (
	// WindowStartHour is the local hour the viewing window opens (inclusive).
	WindowStartHour = 21
	// WindowEndHour is the local hour the viewing window closes (exclusive).
	WindowEndHour = 3
)

// Provider is implemented by each cloud cover backend.
type Provider interface {
	Name() string
	GetCloudCover(ctx context.Context, coord geo.Coordinate) (Reading, error)
}

// Reading is the average cloud cover over the viewing window. An unset CloudCoverPct means the
// upstream did not provide any data for the window.
type Reading struct {
	CloudCoverPct vartype.VarInt `json:"cloudCoverPct"`
	ObservedAt    time.Time      `json:"observedAt"`
	WindowStart   time.Time      `json:"windowStart"`
	WindowEnd     time.Time      `json:"windowEnd"`
	Hours         int            `json:"hours"`
	Source        string         `json:"source"`
	CacheHit      bool           `json:"cacheHit"`
	Stale         bool           `json:"stale"`
}

// ViewingWindow returns the start and end of the viewing window relevant at localNow. Before
// WindowEndHour the night that is still going on is returned, otherwise the upcoming one. The
// returned times share the location of localNow.
func ViewingWindow(localNow time.Time) (time.Time, time.Time) {
	year, month, day := localNow.Date()
	if localNow.Hour() < WindowEndHour {
		day--
	}
	start := time.Date(year, month, day, WindowStartHour, 0, 0, 0, localNow.Location())
	end := time.Date(year, month, day+1, WindowEndHour, 0, 0, 0, localNow.Location())
	return start, end
}

// Average returns the rounded mean of all values whose time lies within [start, end). Values
// are clamped to [0,100] and NaN values are skipped. ok is false if no value was in range.
func Average(times []time.Time, values []float64, start, end time.Time) (pct int, hours int, ok bool) {
	var sum float64
	for i, t := range times {
		if i >= len(values) {
			break
		}
		if t.Before(start) || !t.Before(end) || math.IsNaN(values[i]) {
			continue
		}
		sum += math.Max(0, math.Min(100, values[i]))
		hours++
	}
	if hours == 0 {
		return 0, 0, false
	}
	return int(math.Round(sum / float64(hours))), hours, true
}

type CachedProvider struct {
	provider Provider
	cache    *cache.Cache[Reading]
}

func NewCachedProvider(provider Provider, cache *cache.Cache[Reading]) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
	}
}

func (c *CachedProvider) Name() string {
	return c.provider.Name()
}

func (c *CachedProvider) GetCloudCover(ctx context.Context, coord geo.Coordinate) (Reading, error) {
	key := cache.Key(c.provider.Name(), coord)
	reading, status, err := c.cache.WithCache(ctx, key, func(ctx context.Context) (Reading, error) {
		return c.provider.GetCloudCover(ctx, coord)
	})
	if err != nil {
		return reading, err
	}
	reading.CacheHit = status == cache.StatusHit
	reading.Stale = status == cache.StatusStale
	return reading, nil
}
