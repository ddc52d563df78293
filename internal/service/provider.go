// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/wneessen/aurora-radar/internal/aurora"
	noaaovation "github.com/wneessen/aurora-radar/internal/aurora/provider/noaa-ovation"
	"github.com/wneessen/aurora-radar/internal/cache"
	"github.com/wneessen/aurora-radar/internal/clouds"
	cloudsopenmeteo "github.com/wneessen/aurora-radar/internal/clouds/provider/open-meteo"
	"github.com/wneessen/aurora-radar/internal/conditions"
	"github.com/wneessen/aurora-radar/internal/config"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/weather"
	"github.com/wneessen/aurora-radar/internal/weather/provider/fmi"
	metnorway "github.com/wneessen/aurora-radar/internal/weather/provider/met-norway"
	openmeteo "github.com/wneessen/aurora-radar/internal/weather/provider/open-meteo"
	"github.com/wneessen/aurora-radar/internal/weather/provider/smhi"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewConditions wires the providers, the cache backend and the weather sources selected by the
// configuration into a conditions.Service. The returned io.Closer releases the cache backend.
func NewConditions(conf *config.Config, log *logger.Logger, opts ...conditions.Option) (*conditions.Service, io.Closer, error) {
	httpClient := http.New(log)

	auroraStore, cloudStore, closer := newCacheStores(conf, log)
	auroraProvider, err := newAuroraProvider(conf, httpClient, log, auroraStore)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	cloudProvider, err := newCloudProvider(conf, httpClient, log, cloudStore)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	multi, err := newWeatherSources(conf, httpClient, log)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	opts = append([]conditions.Option{
		conditions.WithTimeout(conf.Providers.Timeout),
		conditions.WithWeather(multi),
	}, opts...)
	service, err := conditions.New(auroraProvider, cloudProvider, log, opts...)
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create conditions service: %w", err)
	}
	return service, closer, nil
}

func newCacheStores(conf *config.Config, log *logger.Logger) (cache.Store[aurora.Reading], cache.Store[clouds.Reading], io.Closer) {
	switch conf.Cache.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		log.Debug("using redis cache backend", slog.String("addr", conf.Redis.Addr),
			slog.String("prefix", conf.Redis.Prefix))
		return cache.NewRedisStore[aurora.Reading](client, conf.Redis.Prefix, cache.DefaultRetention),
			cache.NewRedisStore[clouds.Reading](client, conf.Redis.Prefix, cache.DefaultRetention),
			client
	default:
		return cache.NewMemoryStore[aurora.Reading](), cache.NewMemoryStore[clouds.Reading](), nopCloser{}
	}
}

func newAuroraProvider(conf *config.Config, client *http.Client, log *logger.Logger,
	store cache.Store[aurora.Reading],
) (aurora.Provider, error) {
	ovation, err := noaaovation.New(client, log, noaaovation.WithTimeout(conf.Providers.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create aurora provider: %w", err)
	}
	return aurora.NewCachedProvider(ovation, cache.New(store, log)), nil
}

func newCloudProvider(conf *config.Config, client *http.Client, log *logger.Logger,
	store cache.Store[clouds.Reading],
) (clouds.Provider, error) {
	meteo, err := cloudsopenmeteo.New(client, log, cloudsopenmeteo.WithTimeout(conf.Providers.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud cover provider: %w", err)
	}
	return clouds.NewCachedProvider(meteo, cache.New(store, log)), nil
}

// newWeatherSources registers the national weather services for the countries of the city
// registry and Open-Meteo as the generic source.
func newWeatherSources(conf *config.Config, client *http.Client, log *logger.Logger) (*weather.MultiSource, error) {
	multi := weather.NewMultiSource(log, weather.WithTimeout(conf.Providers.Timeout))

	fmiSource, err := fmi.New(client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create FMI weather source: %w", err)
	}
	multi.Register("FI", fmiSource)

	smhiSource, err := smhi.New(client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMHI weather source: %w", err)
	}
	multi.Register("SE", smhiSource)

	metno, err := metnorway.New(client, log, metnorway.WithRate(conf.Weather.MetNorwayRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create MET Norway weather source: %w", err)
	}
	multi.Register("NO", metno)

	meteo, err := openmeteo.New(client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo weather source: %w", err)
	}
	multi.RegisterGeneric(meteo)

	return multi, nil
}
