// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package weather provides the generic multi-country weather lookup. National meteorological
// services are preferred, generic sources are used as second choice and a synthetic reading is
// returned if everything fails.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/aurora-radar/internal/cities"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/vartype"
)

// Quality rates how trustworthy a Reading is.
type Quality string

const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
)

// SourceFallback is the source name of synthetic readings.
const SourceFallback = "FALLBACK"

// DefaultTimeout is the per-source timeout of a MultiSource.
const DefaultTimeout = time.Second * 10

const (
	fallbackCloudCover = 50.0
	fallbackVisibility = 10.0
)

// Source is implemented by each weather API backend.
type Source interface {
	Name() string
	GetWeather(ctx context.Context, coord geo.Coordinate) (Reading, error)
}

// Reading is the normalized current weather at a location. CloudCover and Humidity are in
// percent, Visibility in km, WindSpeed in m/s and Pressure in hPa. Values a source does not
// provide stay unset.
type Reading struct {
	Temperature vartype.VarFloat64 `json:"temperature"`
	CloudCover  vartype.VarFloat64 `json:"cloudCover"`
	Visibility  vartype.VarFloat64 `json:"visibility"`
	Humidity    vartype.VarFloat64 `json:"humidity"`
	WindSpeed   vartype.VarFloat64 `json:"windSpeed"`
	Pressure    vartype.VarFloat64 `json:"pressure"`
	Timestamp   time.Time          `json:"timestamp"`
	Source      string             `json:"source"`
	Quality     Quality            `json:"quality"`
}

// IsFallback reports whether the reading was synthesized.
func (r Reading) IsFallback() bool {
	return r.Source == SourceFallback
}

// MultiSource routes weather lookups to the sources registered for a country.
type MultiSource struct {
	log      *logger.Logger
	clock    clockwork.Clock
	timeout  time.Duration
	national map[string][]Source
	generic  []Source
}

// Option configures a MultiSource.
type Option func(*MultiSource)

// WithTimeout sets the timeout for each single source lookup.
func WithTimeout(timeout time.Duration) Option {
	return func(m *MultiSource) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithClock sets the clock used for fallback readings.
func WithClock(clock clockwork.Clock) Option {
	return func(m *MultiSource) {
		m.clock = clock
	}
}

func NewMultiSource(log *logger.Logger, opts ...Option) *MultiSource {
	m := &MultiSource{
		log:      log,
		clock:    clockwork.NewRealClock(),
		timeout:  DefaultTimeout,
		national: make(map[string][]Source),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a national source for the given ISO 3166-1 alpha-2 country code. Sources are
// tried in the order they were registered.
func (m *MultiSource) Register(country string, src Source) {
	country = strings.ToUpper(country)
	m.national[country] = append(m.national[country], src)
}

// RegisterGeneric adds a source that is tried for every country after the national ones.
func (m *MultiSource) RegisterGeneric(src Source) {
	m.generic = append(m.generic, src)
}

// Sources returns the names of the sources that would be tried for country.
func (m *MultiSource) Sources(country string) []string {
	var names []string
	for _, src := range m.sourcesFor(country) {
		names = append(names, src.Name())
	}
	return names
}

// GetWeather returns the reading of the first source for country that succeeds. If country is
// empty, the country of the nearest registered city is used. If no source succeeds a fallback
// reading is returned. GetWeather never fails.
func (m *MultiSource) GetWeather(ctx context.Context, country string, coord geo.Coordinate) Reading {
	if country == "" {
		city, _ := cities.Nearest(coord)
		country = city.Country
	}

	var errs []error
	for _, src := range m.sourcesFor(country) {
		reading, err := m.lookup(ctx, src, coord)
		if err == nil {
			return reading
		}
		m.log.Debug("weather source failed", slog.String("source", src.Name()),
			slog.String("country", country), logger.Err(err))
		errs = append(errs, err)
	}

	m.log.Warn("all weather sources failed, using fallback reading", slog.String("country", country),
		slog.String("location", coord.String()), logger.Err(errors.Join(errs...)))
	return Fallback(m.clock.Now())
}

func (m *MultiSource) sourcesFor(country string) []Source {
	national := m.national[strings.ToUpper(country)]
	sources := make([]Source, 0, len(national)+len(m.generic))
	sources = append(sources, national...)
	return append(sources, m.generic...)
}

// lookup calls src with the per-source timeout and turns a panicking source into an error.
func (m *MultiSource) lookup(ctx context.Context, src Source, coord geo.Coordinate) (reading Reading, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("weather source %s panicked: %v", src.Name(), r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return src.GetWeather(ctx, coord)
}

// Fallback returns the synthetic reading used when no source is available. The temperature is
// a rough seasonal guess for Lapland.
func Fallback(now time.Time) Reading {
	return Reading{
		Temperature: vartype.NewVariable(seasonalTemperature(now.Month())),
		CloudCover:  vartype.NewVariable(fallbackCloudCover),
		Visibility:  vartype.NewVariable(fallbackVisibility),
		Timestamp:   now,
		Source:      SourceFallback,
		Quality:     QualityLow,
	}
}

func seasonalTemperature(month time.Month) float64 {
	switch month {
	case time.November, time.December, time.January, time.February, time.March:
		return -12
	case time.April, time.October:
		return -2
	default:
		return 12
	}
}
