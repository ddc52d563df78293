// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package aurora

import (
	"context"
	"time"

	"github.com/wneessen/aurora-radar/internal/cache"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/vartype"
)

// Provider is implemented by each aurora probability backend.
type Provider interface {
	Name() string
	GetAurora(ctx context.Context, coord geo.Coordinate) (Reading, error)
}

// Reading is the normalized aurora probability at a location. Probability is within [0,1].
type Reading struct {
	Probability float64            `json:"probability"`
	KpIndex     vartype.VarFloat64 `json:"kpIndex"`
	ObservedAt  time.Time          `json:"observedAt"`
	ForecastFor time.Time          `json:"forecastFor"`
	Source      string             `json:"source"`
	CacheHit    bool               `json:"cacheHit"`
	Stale       bool               `json:"stale"`
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

func (c *CachedProvider) GetAurora(ctx context.Context, coord geo.Coordinate) (Reading, error) {
	key := cache.Key(c.provider.Name(), coord)
	reading, status, err := c.cache.WithCache(ctx, key, func(ctx context.Context) (Reading, error) {
		return c.provider.GetAurora(ctx, coord)
	})
	if err != nil {
		return reading, err
	}
	reading.CacheHit = status == cache.StatusHit
	reading.Stale = status == cache.StatusStale
	return reading, nil
}
