// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package smhi

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/weather"
)

const (
	name        = "smhi"
	apiEndpoint = "https://opendata-download-metfcst.smhi.se/api/category/pmp3g/version/2/geotype/point"
	apiTimeout  = time.Second * 10

	octas = 8.0
)

type SMHI struct {
	http     *http.Client
	log      *logger.Logger
	clock    clockwork.Clock
	endpoint string
	timeout  time.Duration
}

// Option configures the SMHI source.
type Option func(*SMHI)

// WithEndpoint overrides the point forecast base URL.
func WithEndpoint(endpoint string) Option {
	return func(s *SMHI) {
		s.endpoint = endpoint
	}
}

// WithClock sets the clock used to pick the forecast step closest to now.
func WithClock(clock clockwork.Clock) Option {
	return func(s *SMHI) {
		s.clock = clock
	}
}

type parameter struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Values []float64 `json:"values"`
}

type response struct {
	ApprovedTime time.Time `json:"approvedTime"`
	TimeSeries   []struct {
		ValidTime  time.Time   `json:"validTime"`
		Parameters []parameter `json:"parameters"`
	} `json:"timeSeries"`
}

func New(client *http.Client, log *logger.Logger, opts ...Option) (*SMHI, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	smhi := &SMHI{
		http:     client,
		log:      log,
		clock:    clockwork.NewRealClock(),
		endpoint: apiEndpoint,
		timeout:  apiTimeout,
	}
	for _, opt := range opts {
		opt(smhi)
	}
	return smhi, nil
}

func (s *SMHI) Name() string {
	return name
}

// GetWeather returns the forecast step closest to the current time. SMHI reports the total
// cloud cover in octas, which is converted to percent.
func (s *SMHI) GetWeather(ctx context.Context, coord geo.Coordinate) (weather.Reading, error) {
	endpoint := fmt.Sprintf("%s/lon/%.4f/lat/%.4f/data.json", s.endpoint, coord.Lon, coord.Lat)
	res := new(response)
	if _, err := s.http.GetWithTimeout(ctx, endpoint, res, nil, nil, s.timeout); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: failed to retrieve weather data from SMHI API: %w",
			provider.ErrUpstreamUnavailable, err)
	}
	if len(res.TimeSeries) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: SMHI response contains no time series", provider.ErrEmptyResponse)
	}

	now := s.clock.Now()
	idx := 0
	for i, step := range res.TimeSeries {
		if absDuration(step.ValidTime.Sub(now)) < absDuration(res.TimeSeries[idx].ValidTime.Sub(now)) {
			idx = i
		}
	}
	step := res.TimeSeries[idx]

	reading := weather.Reading{
		Timestamp: step.ValidTime,
		Source:    name,
		Quality:   weather.QualityHigh,
	}
	for _, param := range step.Parameters {
		if len(param.Values) == 0 || math.IsNaN(param.Values[0]) {
			continue
		}
		val := param.Values[0]
		switch param.Name {
		case "t":
			reading.Temperature.Set(val)
		case "tcc_mean":
			reading.CloudCover.Set(math.Max(0, math.Min(100, val/octas*100)))
		case "vis":
			reading.Visibility.Set(val)
		case "r":
			reading.Humidity.Set(val)
		case "ws":
			reading.WindSpeed.Set(val)
		case "msl":
			reading.Pressure.Set(val)
		}
	}
	if !reading.Temperature.IsSet() && !reading.CloudCover.IsSet() {
		return weather.Reading{}, fmt.Errorf("%w: SMHI forecast step carries no data", provider.ErrEmptyResponse)
	}

	return reading, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
