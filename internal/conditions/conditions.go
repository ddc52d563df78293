// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package conditions aggregates the aurora probability, the cloud cover and the astronomical
// state of a location into a scored snapshot of the current viewing conditions.
package conditions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/aurora-radar/internal/astronomy"
	"github.com/wneessen/aurora-radar/internal/aurora"
	"github.com/wneessen/aurora-radar/internal/clouds"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/scoring"
	"github.com/wneessen/aurora-radar/internal/vartype"
	"github.com/wneessen/aurora-radar/internal/weather"
)

const (
	// DefaultTimeout is the timeout of a single provider call.
	DefaultTimeout = time.Second * 10

	SourceAurora = "aurora"
	SourceClouds = "clouds"
)

// Status is the outcome of a single source lookup.
type Status string

const (
	StatusOK          Status = "ok"
	StatusStale       Status = "stale"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable"
)

// Freshness describes how a source contributed to a Snapshot.
type Freshness struct {
	Source     string    `json:"source"`
	Status     Status    `json:"status"`
	ObservedAt time.Time `json:"observedAt,omitzero"`
	Error      string    `json:"error,omitempty"`
}

// Policy holds the values used for sources that failed or returned no data.
type Policy struct {
	Probability   float64 `json:"probability"`
	CloudCoverPct int     `json:"cloudCoverPct"`
}

// DefaultPolicy returns the defaults for missing data. They reflect insufficient data rather
// than an optimistic guess: no aurora and a fully overcast sky.
func DefaultPolicy() Policy {
	return Policy{
		Probability:   0,
		CloudCoverPct: 100,
	}
}

// Snapshot is the scored view of the current viewing conditions. Probability and
// CloudCoverPct are unset if their source did not deliver data, in which case the score was
// computed with the Policy defaults.
type Snapshot struct {
	Coordinate      geo.Coordinate       `json:"coordinate"`
	Score           int                  `json:"score"`
	Badge           scoring.Badge        `json:"badge"`
	Probability     vartype.VarFloat64   `json:"probability"`
	CloudCoverPct   vartype.VarInt       `json:"cloudCoverPct"`
	KpIndex         vartype.VarFloat64   `json:"kpIndex"`
	DarknessFactor  float64              `json:"darknessFactor"`
	MoonOkFactor    float64              `json:"moonOkFactor"`
	Components      scoring.Components   `json:"components"`
	Astronomy       astronomy.State      `json:"astronomy"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	SourceFreshness map[string]Freshness `json:"sourceFreshness"`
	Policy          Policy               `json:"policy"`
}

// Readings are the normalized readings of all providers for a location, including the
// errors of those that failed.
type Readings struct {
	Coordinate  geo.Coordinate  `json:"coordinate"`
	Country     string          `json:"country"`
	Aurora      *aurora.Reading `json:"aurora"`
	AuroraError string          `json:"auroraError,omitempty"`
	Clouds      *clouds.Reading `json:"clouds"`
	CloudsError string          `json:"cloudsError,omitempty"`
	Weather     weather.Reading `json:"weather"`
	Astronomy   astronomy.State `json:"astronomy"`
}

// Service is the aggregator for the viewing conditions.
type Service struct {
	aurora  aurora.Provider
	clouds  clouds.Provider
	weather *weather.MultiSource
	log     *logger.Logger
	clock   clockwork.Clock
	policy  Policy
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for the astronomy computation and the freshness fallback.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(policy Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithTimeout sets the timeout for each provider call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithWeather adds the generic weather lookup used by Readings.
func WithWeather(multi *weather.MultiSource) Option {
	return func(s *Service) {
		s.weather = multi
	}
}

// New returns a Service using the given aurora and cloud cover providers.
func New(auroraProvider aurora.Provider, cloudProvider clouds.Provider, log *logger.Logger, opts ...Option) (*Service, error) {
	if auroraProvider == nil {
		return nil, errors.New("aurora provider is required")
	}
	if cloudProvider == nil {
		return nil, errors.New("cloud cover provider is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	service := &Service{
		aurora:  auroraProvider,
		clouds:  cloudProvider,
		log:     log,
		clock:   clockwork.NewRealClock(),
		policy:  DefaultPolicy(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Policy returns the defaults the Service applies for missing data.
func (s *Service) Policy() Policy {
	return s.policy
}

type auroraResult struct {
	reading aurora.Reading
	err     error
}

type cloudResult struct {
	reading clouds.Reading
	err     error
}

// GetConditions returns the scored viewing conditions at the given coordinates. Provider
// failures are absorbed and replaced by the Policy defaults, so the only error returned is
// geo.ErrInvalidInput.
func (s *Service) GetConditions(ctx context.Context, lat, lon float64) (Snapshot, error) {
	coord, err := geo.New(lat, lon)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.clock.Now()
	auroraRes, cloudRes := s.fetch(ctx, coord)
	astro := astronomy.Compute(coord.Lat, coord.Lon, now)

	snapshot := Snapshot{
		Coordinate:      coord,
		DarknessFactor:  astro.DarknessFactor,
		MoonOkFactor:    astro.MoonOkFactor,
		Astronomy:       astro,
		SourceFreshness: make(map[string]Freshness, 2),
		Policy:          s.policy,
	}

	probability := s.policy.Probability
	fresh := s.freshness(SourceAurora, s.aurora.Name(), auroraRes.reading.Stale, auroraRes.err)
	if auroraRes.err == nil {
		probability = auroraRes.reading.Probability
		snapshot.Probability = vartype.NewVariable(auroraRes.reading.Probability)
		snapshot.KpIndex = auroraRes.reading.KpIndex
		fresh.ObservedAt = auroraRes.reading.ObservedAt
	}
	snapshot.SourceFreshness[SourceAurora] = fresh

	cloudPct := s.policy.CloudCoverPct
	fresh = s.freshness(SourceClouds, s.clouds.Name(), cloudRes.reading.Stale, cloudRes.err)
	switch {
	case cloudRes.err != nil:
	case !cloudRes.reading.CloudCoverPct.IsSet():
		fresh.Status = StatusEmpty
		s.log.Debug("cloud cover provider returned no data for the viewing window",
			slog.String("location", coord.String()))
	default:
		cloudPct = cloudRes.reading.CloudCoverPct.Value()
		snapshot.CloudCoverPct = cloudRes.reading.CloudCoverPct
		fresh.ObservedAt = cloudRes.reading.ObservedAt
	}
	snapshot.SourceFreshness[SourceClouds] = fresh

	snapshot.UpdatedAt = updatedAt(now, snapshot.SourceFreshness)

	result := scoring.Score(probability, float64(cloudPct)/100, astro.DarknessFactor, astro.MoonIlluminationFraction)
	snapshot.Score = result.Score
	snapshot.Badge = result.Badge
	snapshot.Components = result.Components

	return snapshot, nil
}

// Readings returns the normalized reading of every provider for the given coordinates. The
// country selects the national weather sources. If empty, the nearest city's country is used.
func (s *Service) Readings(ctx context.Context, lat, lon float64, country string) (Readings, error) {
	coord, err := geo.New(lat, lon)
	if err != nil {
		return Readings{}, err
	}

	readings := Readings{Coordinate: coord, Country: country}
	var wg sync.WaitGroup
	if s.weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readings.Weather = s.weather.GetWeather(ctx, country, coord)
		}()
	}
	auroraRes, cloudRes := s.fetch(ctx, coord)
	wg.Wait()

	if auroraRes.err != nil {
		readings.AuroraError = auroraRes.err.Error()
	} else {
		readings.Aurora = &auroraRes.reading
	}
	if cloudRes.err != nil {
		readings.CloudsError = cloudRes.err.Error()
	} else {
		readings.Clouds = &cloudRes.reading
	}
	readings.Astronomy = astronomy.Compute(coord.Lat, coord.Lon, s.clock.Now())

	return readings, nil
}

// fetch runs the aurora and the cloud cover lookup concurrently and waits for both. A failing
// lookup does not cancel the other one.
func (s *Service) fetch(ctx context.Context, coord geo.Coordinate) (auroraResult, cloudResult) {
	var wg sync.WaitGroup
	var auroraRes auroraResult
	var cloudRes cloudResult

	wg.Add(2)
	go func() {
		defer wg.Done()
		auroraRes.reading, auroraRes.err = s.lookupAurora(ctx, coord)
	}()
	go func() {
		defer wg.Done()
		cloudRes.reading, cloudRes.err = s.lookupClouds(ctx, coord)
	}()
	wg.Wait()

	return auroraRes, cloudRes
}

func (s *Service) lookupAurora(ctx context.Context, coord geo.Coordinate) (reading aurora.Reading, err error) {
	defer recoverProvider(s.aurora.Name(), &err)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.aurora.GetAurora(ctx, coord)
}

func (s *Service) lookupClouds(ctx context.Context, coord geo.Coordinate) (reading clouds.Reading, err error) {
	defer recoverProvider(s.clouds.Name(), &err)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.clouds.GetCloudCover(ctx, coord)
}

func recoverProvider(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: provider %s panicked: %v", provider.ErrUpstreamUnavailable, name, r)
	}
}

// freshness classifies a lookup result and logs failures. Empty responses are logged at debug
// level, everything else as warning.
func (s *Service) freshness(key, source string, stale bool, err error) Freshness {
	fresh := Freshness{Source: source, Status: StatusOK}
	if stale {
		fresh.Status = StatusStale
	}
	if err == nil {
		return fresh
	}

	fresh.Error = err.Error()
	if errors.Is(err, provider.ErrEmptyResponse) {
		fresh.Status = StatusEmpty
		s.log.Debug("provider returned an empty response, using default", slog.String("source", key),
			logger.Err(err))
		return fresh
	}
	fresh.Status = StatusUnavailable
	s.log.Warn("provider unavailable, using default", slog.String("source", key), logger.Err(err))
	return fresh
}

// updatedAt returns the oldest observation time of all contributing sources, or now if none
// contributed.
func updatedAt(now time.Time, sources map[string]Freshness) time.Time {
	var oldest time.Time
	for _, fresh := range sources {
		if fresh.ObservedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || fresh.ObservedAt.Before(oldest) {
			oldest = fresh.ObservedAt
		}
	}
	if oldest.IsZero() {
		return now
	}
	return oldest
}
