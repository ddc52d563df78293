// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package fmi

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/http"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/provider"
	"github.com/wneessen/aurora-radar/internal/weather"
)

const (
	name        = "fmi"
	apiEndpoint = "https://opendata.fmi.fi/wfs"
	apiTimeout  = time.Second * 10
	storedQuery = "fmi::forecast::edited::weather::scandinavia::point::simple"

	metersPerKm = 1000.0
)

var parameters = []string{"Temperature", "TotalCloudCover", "Visibility", "Humidity", "WindSpeedMS", "Pressure"}

type FMI struct {
	http     *http.Client
	log      *logger.Logger
	clock    clockwork.Clock
	endpoint string
	timeout  time.Duration
}

// Option configures the FMI source.
type Option func(*FMI)

// WithEndpoint overrides the WFS URL.
func WithEndpoint(endpoint string) Option {
	return func(f *FMI) {
		f.endpoint = endpoint
	}
}

// WithClock sets the clock used for the requested time range.
func WithClock(clock clockwork.Clock) Option {
	return func(f *FMI) {
		f.clock = clock
	}
}

// element is a single BsWfsElement of the simple feature format. One element carries one
// parameter value for one point in time.
type element struct {
	Time           time.Time `xml:"Time"`
	ParameterName  string    `xml:"ParameterName"`
	ParameterValue string    `xml:"ParameterValue"`
}

type response struct {
	Elements []element `xml:"member>BsWfsElement"`
}

func New(client *http.Client, log *logger.Logger, opts ...Option) (*FMI, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	fmi := &FMI{
		http:     client,
		log:      log,
		clock:    clockwork.NewRealClock(),
		endpoint: apiEndpoint,
		timeout:  apiTimeout,
	}
	for _, opt := range opts {
		opt(fmi)
	}
	return fmi, nil
}

func (f *FMI) Name() string {
	return name
}

// GetWeather queries the edited point forecast for the next hours and returns the earliest
// forecast time. Missing values are reported as NaN by FMI and stay unset.
func (f *FMI) GetWeather(ctx context.Context, coord geo.Coordinate) (weather.Reading, error) {
	now := f.clock.Now().UTC().Truncate(time.Hour)
	query := url.Values{}
	query.Set("service", "WFS")
	query.Set("version", "2.0.0")
	query.Set("request", "getFeature")
	query.Set("storedquery_id", storedQuery)
	query.Set("latlon", fmt.Sprintf("%.4f,%.4f", coord.Lat, coord.Lon))
	query.Set("parameters", strings.Join(parameters, ","))
	query.Set("starttime", now.Format(time.RFC3339))
	query.Set("endtime", now.Add(2*time.Hour).Format(time.RFC3339))

	res := new(response)
	if _, err := f.http.GetXMLWithTimeout(ctx, f.endpoint, res, query, nil, f.timeout); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: failed to retrieve weather data from FMI API: %w",
			provider.ErrUpstreamUnavailable, err)
	}
	if len(res.Elements) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: FMI response contains no elements", provider.ErrEmptyResponse)
	}

	earliest := res.Elements[0].Time
	for _, elem := range res.Elements[1:] {
		if elem.Time.Before(earliest) {
			earliest = elem.Time
		}
	}

	reading := weather.Reading{
		Timestamp: earliest,
		Source:    name,
		Quality:   weather.QualityHigh,
	}
	for _, elem := range res.Elements {
		if !elem.Time.Equal(earliest) {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(elem.ParameterValue), 64)
		if err != nil || math.IsNaN(val) {
			continue
		}
		switch elem.ParameterName {
		case "Temperature":
			reading.Temperature.Set(val)
		case "TotalCloudCover":
			reading.CloudCover.Set(math.Max(0, math.Min(100, val)))
		case "Visibility":
			reading.Visibility.Set(val / metersPerKm)
		case "Humidity":
			reading.Humidity.Set(val)
		case "WindSpeedMS":
			reading.WindSpeed.Set(val)
		case "Pressure":
			reading.Pressure.Set(val)
		}
	}
	if !reading.Temperature.IsSet() && !reading.CloudCover.IsSet() {
		return weather.Reading{}, fmt.Errorf("%w: FMI forecast carries no usable values", provider.ErrEmptyResponse)
	}

	return reading, nil
}
