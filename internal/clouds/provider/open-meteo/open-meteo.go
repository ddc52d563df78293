// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/aurora-radar/internal/clouds"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/vartype"
)

const (
	name        = "open-meteo"
	apiTimeout  = time.Second * 10
	cloudMetric = "cloud_cover"
)

type OpenMeteo struct {
	client  omgo.Client
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option configures the Open-Meteo cloud cover provider.
type Option func(*OpenMeteo)

// WithTimeout sets the timeout of each upstream request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *OpenMeteo) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithEndpoint overrides the Open-Meteo forecast URL.
func WithEndpoint(endpoint string) Option {
	return func(o *OpenMeteo) {
		o.client.URL = endpoint
	}
}

func New(client *http.Client, log *logger.Logger, opts ...Option) (*OpenMeteo, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	omclient, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}
	omclient.Client = client.Client
	omclient.UserAgent = http.UserAgent

	om := &OpenMeteo{
		client:  omclient,
		log:     log,
		timeout: apiTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(om)
	}
	return om, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

// GetCloudCover averages the hourly cloud cover over the viewing window of the location's
// local night. A response without an hourly series results in a reading without cloud cover
// but no error.
func (o *OpenMeteo) GetCloudCover(ctx context.Context, coord geo.Coordinate) (clouds.Reading, error) {
	reading := clouds.Reading{Source: name}

	location, err := omgo.NewLocation(coord.Lat, coord.Lon)
	if err != nil {
		return reading, fmt.Errorf("%w: failed to create Open-Meteo location: %w", provider.ErrUpstreamUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	forecast, err := o.client.Forecast(ctx, location, &omgo.Options{
		Timezone:      "auto",
		HourlyMetrics: []string{cloudMetric},
	})
	if err != nil {
		return reading, fmt.Errorf("%w: failed to retrieve cloud cover from Open-Meteo API: %w",
			provider.ErrUpstreamUnavailable, err)
	}
	if forecast == nil {
		return reading, fmt.Errorf("%w: Open-Meteo API returned no forecast", provider.ErrUpstreamUnavailable)
	}
	reading.ObservedAt = o.now().UTC()

	// Open-Meteo reports hourly times as local wall clock time when the timezone is set to auto,
	// so the window is computed in the same frame.
	localNow := forecast.CurrentWeather.Time.Time
	if localNow.IsZero() {
		localNow = reading.ObservedAt
	}
	reading.WindowStart, reading.WindowEnd = clouds.ViewingWindow(localNow)

	series, ok := forecast.HourlyMetrics[cloudMetric]
	if !ok || len(series) == 0 || len(forecast.HourlyTimes) == 0 {
		o.log.Debug("Open-Meteo response contains no hourly cloud cover series", slog.String("location", coord.String()))
		return reading, nil
	}
	pct, hours, ok := clouds.Average(forecast.HourlyTimes, series, reading.WindowStart, reading.WindowEnd)
	if !ok {
		o.log.Debug("Open-Meteo response contains no hours within the viewing window", slog.String("location", coord.String()))
		return reading, nil
	}
	reading.CloudCoverPct = vartype.NewVariable(pct)
	reading.Hours = hours

	return reading, nil
}
