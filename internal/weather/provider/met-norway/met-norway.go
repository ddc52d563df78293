// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package metnorway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/vartype"
	"github.com/wneessen/aurora-radar/internal/weather"
)

const (
	name        = "met-norway"
	apiEndpoint = "https://api.met.no/weatherapi/locationforecast/2.0/compact"
	apiTimeout  = time.Second * 10

	// DefaultRate is the number of requests per second sent to the API. MET Norway asks
	// clients to keep the request volume low.
	DefaultRate = 1.0
)

type MetNorway struct {
	http     *http.Client
	log      *logger.Logger
	endpoint string
	timeout  time.Duration
	limiter  *rate.Limiter
}

// Option configures the MET Norway source.
type Option func(*MetNorway)

// WithEndpoint overrides the locationforecast URL.
func WithEndpoint(endpoint string) Option {
	return func(m *MetNorway) {
		m.endpoint = endpoint
	}
}

// WithRate sets the allowed requests per second.
func WithRate(perSecond float64) Option {
	return func(m *MetNorway) {
		if perSecond > 0 {
			m.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

type details struct {
	AirPressureAtSeaLevel *float64 `json:"air_pressure_at_sea_level"`
	AirTemperature        *float64 `json:"air_temperature"`
	CloudAreaFraction     *float64 `json:"cloud_area_fraction"`
	RelativeHumidity      *float64 `json:"relative_humidity"`
	WindSpeed             *float64 `json:"wind_speed"`
}

type response struct {
	Properties struct {
		Meta struct {
			UpdatedAt time.Time `json:"updated_at"`
		} `json:"meta"`
		Timeseries []struct {
			Time time.Time `json:"time"`
			Data struct {
				Instant struct {
					Details details `json:"details"`
				} `json:"instant"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

func New(client *http.Client, log *logger.Logger, opts ...Option) (*MetNorway, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	metno := &MetNorway{
		http:     client,
		log:      log,
		endpoint: apiEndpoint,
		timeout:  apiTimeout,
		limiter:  rate.NewLimiter(rate.Limit(DefaultRate), 1),
	}
	for _, opt := range opts {
		opt(metno)
	}
	return metno, nil
}

func (m *MetNorway) Name() string {
	return name
}

// GetWeather returns the first instant of the compact location forecast.
func (m *MetNorway) GetWeather(ctx context.Context, coord geo.Coordinate) (weather.Reading, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: rate limiter: %w", provider.ErrUpstreamUnavailable, err)
	}

	// MET Norway rejects coordinates with more than 4 decimals
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", coord.Lat))
	query.Set("lon", fmt.Sprintf("%.4f", coord.Lon))

	res := new(response)
	if _, err := m.http.GetWithTimeout(ctx, m.endpoint, res, query, nil, m.timeout); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: failed to retrieve weather data from MET Norway API: %w",
			provider.ErrUpstreamUnavailable, err)
	}
	if len(res.Properties.Timeseries) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: MET Norway response contains no timeseries",
			provider.ErrEmptyResponse)
	}

	instant := res.Properties.Timeseries[0]
	d := instant.Data.Instant.Details
	if d.AirTemperature == nil && d.CloudAreaFraction == nil {
		return weather.Reading{}, fmt.Errorf("%w: MET Norway instant carries no data", provider.ErrEmptyResponse)
	}

	reading := weather.Reading{
		Timestamp: instant.Time,
		Source:    name,
		Quality:   weather.QualityHigh,
	}
	setIfPresent(&reading.Temperature, d.AirTemperature)
	setIfPresent(&reading.CloudCover, d.CloudAreaFraction)
	setIfPresent(&reading.Humidity, d.RelativeHumidity)
	setIfPresent(&reading.WindSpeed, d.WindSpeed)
	setIfPresent(&reading.Pressure, d.AirPressureAtSeaLevel)

	return reading, nil
}

func setIfPresent(target *vartype.VarFloat64, val *float64) {
	if val != nil {
		target.Set(*val)
	}
}
