// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/weather"
)

const (
	name        = "open-meteo"
	apiEndpoint = "https://api.open-meteo.com/v1/forecast"
	apiTimeout  = time.Second * 10

	metersPerKm = 1000.0
)

var dataFields = []string{
	"temperature_2m", "cloud_cover", "visibility", "relative_humidity_2m", "wind_speed_10m", "pressure_msl",
}

type OpenMeteo struct {
	log      *logger.Logger
	http     *http.Client
	endpoint string
}

type resTime struct {
	time.Time
}

type response struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Current          *struct {
		Time             resTime  `json:"time"`
		Temperature      *float64 `json:"temperature_2m"`
		CloudCover       *float64 `json:"cloud_cover"`
		Visibility       *float64 `json:"visibility"`
		RelativeHumidity *float64 `json:"relative_humidity_2m"`
		WindSpeed        *float64 `json:"wind_speed_10m"`
		PressureMSL      *float64 `json:"pressure_msl"`
	} `json:"current"`
}

// Option configures the Open-Meteo weather source.
type Option func(*OpenMeteo)

// WithEndpoint overrides the forecast URL.
func WithEndpoint(endpoint string) Option {
	return func(o *OpenMeteo) {
		o.endpoint = endpoint
	}
}

func New(http *http.Client, log *logger.Logger, opts ...Option) (*OpenMeteo, error) {
	if http == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	om := &OpenMeteo{http: http, log: log, endpoint: apiEndpoint}
	for _, opt := range opts {
		opt(om)
	}
	return om, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

// GetWeather returns the current conditions. Open-Meteo is a model blend available for every
// location, so its readings are rated with medium quality.
func (o *OpenMeteo) GetWeather(ctx context.Context, coords geo.Coordinate) (weather.Reading, error) {
	res := new(response)

	// latitude=66.50&longitude=25.73&current=temperature_2m,cloud_cover&wind_speed_unit=ms
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%f", coords.Lat))
	query.Set("longitude", fmt.Sprintf("%f", coords.Lon))
	query.Set("current", strings.Join(dataFields, ","))
	query.Set("wind_speed_unit", "ms")

	if _, err := o.http.GetWithTimeout(ctx, o.endpoint, res, query, nil, apiTimeout); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: failed to retrieve weather data from Open-Meteo API: %w",
			provider.ErrUpstreamUnavailable, err)
	}
	if res.Current == nil {
		return weather.Reading{}, fmt.Errorf("%w: Open-Meteo response contains no current data",
			provider.ErrEmptyResponse)
	}

	cur := res.Current
	reading := weather.Reading{
		Timestamp: cur.Time.Time,
		Source:    name,
		Quality:   weather.QualityMedium,
	}
	if cur.Temperature != nil {
		reading.Temperature.Set(*cur.Temperature)
	}
	if cur.CloudCover != nil {
		reading.CloudCover.Set(*cur.CloudCover)
	}
	if cur.Visibility != nil {
		reading.Visibility.Set(*cur.Visibility / metersPerKm)
	}
	if cur.RelativeHumidity != nil {
		reading.Humidity.Set(*cur.RelativeHumidity)
	}
	if cur.WindSpeed != nil {
		reading.WindSpeed.Set(*cur.WindSpeed)
	}
	if cur.PressureMSL != nil {
		reading.Pressure.Set(*cur.PressureMSL)
	}

	return reading, nil
}

// UnmarshalJSON parses the ISO8601 times without seconds that Open-Meteo returns. Without a
// timezone parameter they are in UTC.
func (r *resTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty time")
	}
	if b[0] != '"' {
		return fmt.Errorf("invalid time format: %s", string(b))
	}

	apiTime, err := time.Parse("2006-01-02T15:04", string(b[1:len(b)-1]))
	if err != nil {
		return fmt.Errorf("failed to parse time: %w", err)
	}
	r.Time = apiTime

	return nil
}
