// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
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
	testLat = 66.5039
	testLon = 25.7294
)

var (
	testNow    = time.Date(2024, time.December, 21, 22, 0, 0, 0, time.UTC)
	auroraTime = time.Date(2024, time.December, 21, 21, 40, 0, 0, time.UTC)
	cloudTime  = time.Date(2024, time.December, 21, 21, 55, 0, 0, time.UTC)
)

type mockAurora struct {
	reading aurora.Reading
	err     error
	panic   bool
	block   bool
}

func (m *mockAurora) Name() string { return "mock-aurora" }

func (m *mockAurora) GetAurora(ctx context.Context, _ geo.Coordinate) (aurora.Reading, error) {
	if m.panic {
		panic("intentional panic")
	}
	if m.block {
		<-ctx.Done()
		return aurora.Reading{}, fmt.Errorf("%w: %w", provider.ErrUpstreamUnavailable, ctx.Err())
	}
	return m.reading, m.err
}

type mockClouds struct {
	reading clouds.Reading
	err     error
}

func (m *mockClouds) Name() string { return "mock-clouds" }

func (m *mockClouds) GetCloudCover(context.Context, geo.Coordinate) (clouds.Reading, error) {
	return m.reading, m.err
}

func okAurora() *mockAurora {
	return &mockAurora{reading: aurora.Reading{
		Probability: 0.6,
		KpIndex:     vartype.NewVariable(5.0),
		ObservedAt:  auroraTime,
		Source:      "mock-aurora",
	}}
}

func okClouds() *mockClouds {
	return &mockClouds{reading: clouds.Reading{
		CloudCoverPct: vartype.NewVariable(20),
		ObservedAt:    cloudTime,
		Hours:         6,
		Source:        "mock-clouds",
	}}
}

func testService(t *testing.T, a aurora.Provider, c clouds.Provider, opts ...Option) *Service {
	t.Helper()
	log := logger.NewLogger(slog.LevelDebug, io.Discard)
	opts = append([]Option{WithClock(clockwork.NewFakeClockAt(testNow))}, opts...)
	service, err := New(a, c, log, opts...)
	if err != nil {
		t.Fatalf("failed to create service: %s", err)
	}
	return service
}

func expectedScore(p float64, cloudPct int) scoring.Result {
	astro := astronomy.Compute(testLat, testLon, testNow)
	return scoring.Score(p, float64(cloudPct)/100, astro.DarknessFactor, astro.MoonIlluminationFraction)
}

func TestNew(t *testing.T) {
	log := logger.NewLogger(slog.LevelDebug, io.Discard)
	if _, err := New(nil, okClouds(), log); err == nil {
		t.Error("expected missing aurora provider to fail")
	}
	if _, err := New(okAurora(), nil, log); err == nil {
		t.Error("expected missing cloud provider to fail")
	}
	if _, err := New(okAurora(), okClouds(), nil); err == nil {
		t.Error("expected missing logger to fail")
	}
	service, err := New(okAurora(), okClouds(), log)
	if err != nil {
		t.Fatalf("failed to create service: %s", err)
	}
	if service.Policy() != DefaultPolicy() {
		t.Errorf("expected default policy, got %+v", service.Policy())
	}
}

func TestService_GetConditions(t *testing.T) {
	t.Run("all sources available", func(t *testing.T) {
		service := testService(t, okAurora(), okClouds())
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("failed to get conditions: %s", err)
		}
		want := expectedScore(0.6, 20)
		if snapshot.Score != want.Score || snapshot.Badge != want.Badge {
			t.Errorf("expected score %d (%s), got %d (%s)", want.Score, want.Badge, snapshot.Score, snapshot.Badge)
		}
		if snapshot.Score == 0 {
			t.Error("expected a non-zero score on a dark night")
		}
		if snapshot.Probability.Value() != 0.6 || snapshot.CloudCoverPct.Value() != 20 {
			t.Errorf("unexpected probability/cloud cover %s/%s", snapshot.Probability, snapshot.CloudCoverPct)
		}
		if snapshot.KpIndex.Value() != 5 {
			t.Errorf("expected Kp 5, got %s", snapshot.KpIndex)
		}
		if snapshot.DarknessFactor != 1 {
			t.Errorf("expected full darkness, got %f", snapshot.DarknessFactor)
		}
		for key, fresh := range snapshot.SourceFreshness {
			if fresh.Status != StatusOK {
				t.Errorf("expected source %s to be ok, got %s", key, fresh.Status)
			}
		}
		if snapshot.SourceFreshness[SourceAurora].Source != "mock-aurora" {
			t.Errorf("unexpected source name %q", snapshot.SourceFreshness[SourceAurora].Source)
		}
	})
	t.Run("updatedAt is the earliest source timestamp", func(t *testing.T) {
		service := testService(t, okAurora(), okClouds())
		snapshot, _ := service.GetConditions(t.Context(), testLat, testLon)
		if !snapshot.UpdatedAt.Equal(auroraTime) {
			t.Errorf("expected updatedAt %s, got %s", auroraTime, snapshot.UpdatedAt)
		}

		late := okAurora()
		late.reading.ObservedAt = cloudTime.Add(time.Minute)
		service = testService(t, late, okClouds())
		snapshot, _ = service.GetConditions(t.Context(), testLat, testLon)
		if !snapshot.UpdatedAt.Equal(cloudTime) {
			t.Errorf("expected updatedAt %s, got %s", cloudTime, snapshot.UpdatedAt)
		}
	})
	t.Run("a failing aurora provider uses the default probability", func(t *testing.T) {
		failing := &mockAurora{err: fmt.Errorf("%w: HTTP 503", provider.ErrUpstreamUnavailable)}
		service := testService(t, failing, okClouds())
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("expected no error, got: %s", err)
		}
		if snapshot.Probability.IsSet() {
			t.Errorf("expected probability to be unset, got %s", snapshot.Probability)
		}
		if snapshot.Components.Probability != DefaultPolicy().Probability {
			t.Errorf("expected default probability %f, got %f", DefaultPolicy().Probability,
				snapshot.Components.Probability)
		}
		if snapshot.Score != 0 || snapshot.Badge != scoring.BadgePoor {
			t.Errorf("expected score 0 (Poor), got %d (%s)", snapshot.Score, snapshot.Badge)
		}
		fresh := snapshot.SourceFreshness[SourceAurora]
		if fresh.Status != StatusUnavailable || fresh.Error == "" {
			t.Errorf("expected unavailable aurora source with error, got %+v", fresh)
		}
		if !snapshot.UpdatedAt.Equal(cloudTime) {
			t.Errorf("expected updatedAt from clouds %s, got %s", cloudTime, snapshot.UpdatedAt)
		}
	})
	t.Run("a panicking provider is absorbed", func(t *testing.T) {
		service := testService(t, &mockAurora{panic: true}, okClouds())
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("expected no error, got: %s", err)
		}
		if snapshot.SourceFreshness[SourceAurora].Status != StatusUnavailable {
			t.Errorf("expected aurora source to be unavailable, got %s", snapshot.SourceFreshness[SourceAurora].Status)
		}
	})
	t.Run("an empty cloud reading uses the default cloud cover", func(t *testing.T) {
		empty := &mockClouds{reading: clouds.Reading{ObservedAt: cloudTime, Source: "mock-clouds"}}
		service := testService(t, okAurora(), empty)
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("expected no error, got: %s", err)
		}
		if snapshot.CloudCoverPct.IsSet() {
			t.Errorf("expected cloud cover to be unset, got %s", snapshot.CloudCoverPct)
		}
		if snapshot.Components.Visibility != 0 {
			t.Errorf("expected no visibility, got %f", snapshot.Components.Visibility)
		}
		if snapshot.SourceFreshness[SourceClouds].Status != StatusEmpty {
			t.Errorf("expected empty cloud source, got %s", snapshot.SourceFreshness[SourceClouds].Status)
		}
		if !snapshot.UpdatedAt.Equal(auroraTime) {
			t.Errorf("expected updatedAt %s, got %s", auroraTime, snapshot.UpdatedAt)
		}
	})
	t.Run("an empty response error is classified as empty", func(t *testing.T) {
		empty := &mockAurora{err: fmt.Errorf("%w: no grid cells", provider.ErrEmptyResponse)}
		service := testService(t, empty, okClouds())
		snapshot, _ := service.GetConditions(t.Context(), testLat, testLon)
		if snapshot.SourceFreshness[SourceAurora].Status != StatusEmpty {
			t.Errorf("expected empty aurora source, got %s", snapshot.SourceFreshness[SourceAurora].Status)
		}
	})
	t.Run("stale readings are flagged", func(t *testing.T) {
		stale := okAurora()
		stale.reading.Stale = true
		service := testService(t, stale, okClouds())
		snapshot, _ := service.GetConditions(t.Context(), testLat, testLon)
		if snapshot.SourceFreshness[SourceAurora].Status != StatusStale {
			t.Errorf("expected stale aurora source, got %s", snapshot.SourceFreshness[SourceAurora].Status)
		}
		if !snapshot.Probability.IsSet() {
			t.Error("expected stale probability to be used")
		}
	})
	t.Run("all sources failing returns a complete snapshot", func(t *testing.T) {
		service := testService(t, &mockAurora{err: provider.ErrUpstreamUnavailable},
			&mockClouds{err: provider.ErrUpstreamUnavailable})
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("expected no error, got: %s", err)
		}
		if !snapshot.UpdatedAt.Equal(testNow) {
			t.Errorf("expected updatedAt to be now (%s), got %s", testNow, snapshot.UpdatedAt)
		}
		if snapshot.Score != 0 || snapshot.Badge != scoring.BadgePoor {
			t.Errorf("expected score 0 (Poor), got %d (%s)", snapshot.Score, snapshot.Badge)
		}
		if len(snapshot.SourceFreshness) != 2 {
			t.Errorf("expected freshness for 2 sources, got %d", len(snapshot.SourceFreshness))
		}
		if snapshot.Astronomy.MoonPhase == "" {
			t.Error("expected astronomy data to be present")
		}
	})
	t.Run("a slow provider does not block the others", func(t *testing.T) {
		service := testService(t, &mockAurora{block: true}, okClouds(), WithTimeout(20*time.Millisecond))
		snapshot, err := service.GetConditions(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatalf("expected no error, got: %s", err)
		}
		if snapshot.SourceFreshness[SourceAurora].Status != StatusUnavailable {
			t.Errorf("expected timed out aurora source, got %s", snapshot.SourceFreshness[SourceAurora].Status)
		}
		if snapshot.CloudCoverPct.Value() != 20 {
			t.Errorf("expected cloud cover to be present, got %s", snapshot.CloudCoverPct)
		}
	})
	t.Run("a custom policy is applied", func(t *testing.T) {
		policy := Policy{Probability: 0.7, CloudCoverPct: 30}
		service := testService(t, &mockAurora{err: provider.ErrUpstreamUnavailable},
			&mockClouds{err: provider.ErrUpstreamUnavailable}, WithPolicy(policy))
		snapshot, _ := service.GetConditions(t.Context(), testLat, testLon)
		want := expectedScore(0.7, 30)
		if snapshot.Score != want.Score {
			t.Errorf("expected score %d, got %d", want.Score, snapshot.Score)
		}
		if snapshot.Policy != policy {
			t.Errorf("expected policy %+v in snapshot, got %+v", policy, snapshot.Policy)
		}
	})
	t.Run("invalid coordinates are rejected", func(t *testing.T) {
		service := testService(t, okAurora(), okClouds())
		for _, c := range [][2]float64{{91, 0}, {-90.1, 0}, {0, 181}, {0, -180.5}} {
			_, err := service.GetConditions(t.Context(), c[0], c[1])
			if !errors.Is(err, geo.ErrInvalidInput) {
				t.Errorf("expected error for %v to be %s, got %v", c, geo.ErrInvalidInput, err)
			}
		}
	})
	t.Run("missing values encode as null", func(t *testing.T) {
		service := testService(t, &mockAurora{err: provider.ErrUpstreamUnavailable}, okClouds())
		snapshot, _ := service.GetConditions(t.Context(), testLat, testLon)
		data, err := json.Marshal(snapshot)
		if err != nil {
			t.Fatalf("failed to marshal snapshot: %s", err)
		}
		if !strings.Contains(string(data), `"probability":null`) {
			t.Errorf("expected probability to be null in %s", data)
		}
		if !strings.Contains(string(data), `"badge":"Poor"`) {
			t.Errorf("expected badge to be encoded by name in %s", data)
		}
	})
}

type mockWeather struct{}

func (mockWeather) Name() string { return "mock-weather" }

func (mockWeather) GetWeather(context.Context, geo.Coordinate) (weather.Reading, error) {
	return weather.Reading{Temperature: vartype.NewVariable(-20.0), Source: "mock-weather",
		Quality: weather.QualityHigh}, nil
}

func TestService_Readings(t *testing.T) {
	t.Run("all readings are returned", func(t *testing.T) {
		multi := weather.NewMultiSource(logger.NewLogger(slog.LevelDebug, io.Discard))
		multi.Register("FI", mockWeather{})
		service := testService(t, okAurora(), okClouds(), WithWeather(multi))

		readings, err := service.Readings(t.Context(), testLat, testLon, "")
		if err != nil {
			t.Fatalf("failed to get readings: %s", err)
		}
		if readings.Aurora == nil || readings.Aurora.Probability != 0.6 {
			t.Errorf("unexpected aurora reading %+v", readings.Aurora)
		}
		if readings.Clouds == nil || readings.Clouds.Hours != 6 {
			t.Errorf("unexpected cloud reading %+v", readings.Clouds)
		}
		if readings.Weather.Source != "mock-weather" {
			t.Errorf("expected weather from mock-weather, got %s", readings.Weather.Source)
		}
	})
	t.Run("failures are reported per provider", func(t *testing.T) {
		service := testService(t, &mockAurora{err: provider.ErrUpstreamUnavailable}, okClouds())
		readings, err := service.Readings(t.Context(), testLat, testLon, "FI")
		if err != nil {
			t.Fatalf("failed to get readings: %s", err)
		}
		if readings.Aurora != nil || readings.AuroraError == "" {
			t.Errorf("expected aurora error, got %+v / %q", readings.Aurora, readings.AuroraError)
		}
		if readings.Weather.Source != "" {
			t.Errorf("expected no weather lookup without a multi source, got %s", readings.Weather.Source)
		}
	})
	t.Run("invalid coordinates are rejected", func(t *testing.T) {
		service := testService(t, okAurora(), okClouds())
		if _, err := service.Readings(t.Context(), 100, 0, ""); !errors.Is(err, geo.ErrInvalidInput) {
			t.Errorf("expected error to be %s, got %v", geo.ErrInvalidInput, err)
		}
	})
}
