// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package noaaovation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wneessen/aurora-radar/internal/aurora"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/vartype"
)

const (
	name            = "noaa-ovation"
	OvationEndpoint = "https://services.swpc.noaa.gov/json/ovation_aurora_latest.json"
	KpEndpoint      = "https://services.swpc.noaa.gov/json/planetary_k_index_1m.json"
	apiTimeout      = time.Second * 10

	kpTimeFormat = "2006-01-02T15:04:05"
	maxKp        = 9.0
)

type Ovation struct {
	http       *http.Client
	log        *logger.Logger
	timeout    time.Duration
	ovationURL string
	kpURL      string
	breaker    *gobreaker.CircuitBreaker
}

// Option configures the OVATION provider.
type Option func(*Ovation)

// WithTimeout sets the timeout of each upstream request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Ovation) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithEndpoints overrides the OVATION and Kp index URLs.
func WithEndpoints(ovationURL, kpURL string) Option {
	return func(o *Ovation) {
		o.ovationURL = ovationURL
		o.kpURL = kpURL
	}
}

type response struct {
	ObservationTime string      `json:"Observation Time"`
	ForecastTime    string      `json:"Forecast Time"`
	DataFormat      string      `json:"Data Format"`
	Coordinates     [][]float64 `json:"coordinates"`
}

type kpEntry struct {
	TimeTag     string   `json:"time_tag"`
	KpIndex     *float64 `json:"kp_index"`
	EstimatedKp *float64 `json:"estimated_kp"`
}

// cell is a validated grid point of the OVATION model. Lon is within [0,360).
type cell struct {
	Lon         float64
	Lat         float64
	Probability float64
}

type ovationData struct {
	observedAt  time.Time
	forecastFor time.Time
	cells       []cell
}

func New(client *http.Client, log *logger.Logger, opts ...Option) (*Ovation, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	ovation := &Ovation{
		http:       client,
		log:        log,
		timeout:    apiTimeout,
		ovationURL: OvationEndpoint,
		kpURL:      KpEndpoint,
	}
	for _, opt := range opts {
		opt(ovation)
	}
	ovation.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, provider.ErrEmptyResponse)
		},
		OnStateChange: func(breaker string, from, to gobreaker.State) {
			log.Info("circuit breaker changed state", slog.String("provider", breaker),
				slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return ovation, nil
}

func (o *Ovation) Name() string {
	return name
}

// GetAurora returns the probability of the OVATION grid cell nearest to coord together with
// the latest planetary Kp index. A failing Kp lookup leaves the Kp index unset.
func (o *Ovation) GetAurora(ctx context.Context, coord geo.Coordinate) (aurora.Reading, error) {
	result, err := o.breaker.Execute(func() (interface{}, error) {
		return o.fetchOvation(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return aurora.Reading{}, fmt.Errorf("%w: %w", provider.ErrUpstreamUnavailable, err)
		}
		return aurora.Reading{}, err
	}
	data, ok := result.(*ovationData)
	if !ok {
		return aurora.Reading{}, fmt.Errorf("%w: unexpected result type from circuit breaker",
			provider.ErrUpstreamUnavailable)
	}

	probability := nearestCell(data.cells, coord)
	reading := aurora.Reading{
		Probability: probability / 100,
		ObservedAt:  data.observedAt,
		ForecastFor: data.forecastFor,
		Source:      name,
	}

	kp, err := o.fetchKp(ctx)
	if err != nil {
		o.log.Debug("failed to retrieve Kp index, continuing without", logger.Err(err))
		return reading, nil
	}
	reading.KpIndex = vartype.NewVariable(kp)

	return reading, nil
}

func (o *Ovation) fetchOvation(ctx context.Context) (*ovationData, error) {
	res := new(response)
	if _, err := o.http.GetWithTimeout(ctx, o.ovationURL, res, nil, nil, o.timeout); err != nil {
		return nil, fmt.Errorf("%w: failed to retrieve OVATION data: %w", provider.ErrUpstreamUnavailable, err)
	}

	observedAt, err := time.Parse(time.RFC3339, res.ObservationTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid observation time %q: %w", provider.ErrUpstreamUnavailable,
			res.ObservationTime, err)
	}
	data := &ovationData{
		observedAt: observedAt,
		cells:      make([]cell, 0, len(res.Coordinates)),
	}
	if forecastFor, err := time.Parse(time.RFC3339, res.ForecastTime); err == nil {
		data.forecastFor = forecastFor
	}

	for _, coord := range res.Coordinates {
		if len(coord) < 3 {
			continue
		}
		c := cell{Lon: coord[0], Lat: coord[1], Probability: math.Max(0, math.Min(100, coord[2]))}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon >= 360 {
			continue
		}
		if c.Lon < 0 {
			c.Lon += 360
		}
		data.cells = append(data.cells, c)
	}
	if len(data.cells) == 0 {
		return nil, fmt.Errorf("%w: OVATION response contains no grid cells", provider.ErrEmptyResponse)
	}

	return data, nil
}

func (o *Ovation) fetchKp(ctx context.Context) (float64, error) {
	var entries []kpEntry
	if _, err := o.http.GetWithTimeout(ctx, o.kpURL, &entries, nil, nil, o.timeout); err != nil {
		return 0, fmt.Errorf("%w: failed to retrieve Kp index: %w", provider.ErrUpstreamUnavailable, err)
	}

	var latest *kpEntry
	var latestTime time.Time
	for i := range entries {
		tag, err := time.Parse(kpTimeFormat, entries[i].TimeTag)
		if err != nil {
			continue
		}
		if latest == nil || tag.After(latestTime) {
			latest, latestTime = &entries[i], tag
		}
	}
	if latest == nil {
		return 0, fmt.Errorf("%w: Kp response contains no entries", provider.ErrEmptyResponse)
	}

	kp := latest.EstimatedKp
	if kp == nil {
		kp = latest.KpIndex
	}
	if kp == nil || math.IsNaN(*kp) || *kp < 0 || *kp > maxKp {
		return 0, fmt.Errorf("%w: Kp entry carries no valid index", provider.ErrEmptyResponse)
	}
	return *kp, nil
}

// nearestCell returns the probability of the grid cell closest to coord by euclidean distance
// in degree space. Longitude distances wrap around the antimeridian.
func nearestCell(cells []cell, coord geo.Coordinate) float64 {
	lon := coord.Lon
	if lon < 0 {
		lon += 360
	}

	best := math.Inf(1)
	var probability float64
	for _, c := range cells {
		dLon := math.Abs(c.Lon - lon)
		if dLon > 180 {
			dLon = 360 - dLon
		}
		dLat := c.Lat - coord.Lat
		if dist := dLat*dLat + dLon*dLon; dist < best {
			best, probability = dist, c.Probability
		}
	}
	return probability
}
