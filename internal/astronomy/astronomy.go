// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package astronomy computes the sun and moon state that is relevant for aurora viewing. All
// functions are pure and deterministic for a given position and instant.
package astronomy

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/wneessen/go-moonphase"
)

const (
	// CivilTwilight is the solar elevation at which the sky starts to darken.
	CivilTwilight = -6.0
	// NauticalTwilight is the solar elevation below which the sky counts as fully dark.
	NauticalTwilight = -12.0

	// SynodicMonth is the mean length of a lunar cycle in days.
	SynodicMonth = 29.53059

	// MoonPenalty is the share of the moon-ok factor a full moon takes away.
	MoonPenalty = 0.6

	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// referenceNewMoon is a known new moon used as anchor for the synodic phase approximation.
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// State is the astronomical state at a given position and instant.
type State struct {
	SolarElevationDeg        float64   `json:"solarElevationDeg"`
	DarknessFactor           float64   `json:"darknessFactor"`
	MoonIlluminationFraction float64   `json:"moonIlluminationFraction"`
	MoonOkFactor             float64   `json:"moonOkFactor"`
	MoonPhase                string    `json:"moonPhase"`
	Sunrise                  time.Time `json:"sunrise"`
	Sunset                   time.Time `json:"sunset"`
}

// Compute returns the astronomical State for the given coordinates and instant. Sunrise and
// Sunset are zero during polar night and midnight sun.
func Compute(lat, lon float64, t time.Time) State {
	t = t.UTC()
	elevation := SolarElevation(lat, lon, t)
	illumination := MoonIllumination(t)
	rise, set := sunrise.SunriseSunset(lat, lon, t.Year(), t.Month(), t.Day())

	return State{
		SolarElevationDeg:        elevation,
		DarknessFactor:           DarknessFactor(elevation),
		MoonIlluminationFraction: illumination,
		MoonOkFactor:             MoonOkFactor(illumination),
		MoonPhase:                moonphase.New(t).PhaseName(),
		Sunrise:                  rise,
		Sunset:                   set,
	}
}

// SolarElevation returns the elevation of the sun above the horizon in degrees, following the
// NOAA general solar position approximation. No atmospheric refraction correction is applied.
func SolarElevation(lat, lon float64, t time.Time) float64 {
	t = t.UTC()
	daysInYear := 365.0
	if isLeapYear(t.Year()) {
		daysInYear = 366.0
	}
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	// fractional year in radians
	gamma := 2 * math.Pi / daysInYear * (float64(t.YearDay()-1) + (hour-12)/24)

	eqTime := 229.18 * (0.000075 + 0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	trueSolarMinutes := hour*60 + eqTime + 4*lon
	hourAngle := (trueSolarMinutes/4 - 180) * degToRad
	latRad := lat * degToRad

	sinElevation := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(hourAngle)
	return math.Asin(math.Max(-1, math.Min(1, sinElevation))) * radToDeg
}

// DarknessFactor maps a solar elevation to [0,1]: 0 at or above civil twilight, 1 at or below
// nautical twilight and linear in between.
func DarknessFactor(elevationDeg float64) float64 {
	switch {
	case math.IsNaN(elevationDeg):
		return 0
	case elevationDeg >= CivilTwilight:
		return 0
	case elevationDeg <= NauticalTwilight:
		return 1
	}
	return (CivilTwilight - elevationDeg) / (CivilTwilight - NauticalTwilight)
}

// MoonIllumination returns the illuminated fraction of the moon disc at t.
func MoonIllumination(t time.Time) float64 {
	age := MoonAge(t)
	return clamp01((1 - math.Cos(2*math.Pi*age/SynodicMonth)) / 2)
}

// MoonAge returns the days since the last new moon.
func MoonAge(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24
	age := math.Mod(days, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	return age
}

// MoonOkFactor returns how favorable the moon brightness is for aurora viewing: 1.0 at new
// moon, 0.4 at full moon.
func MoonOkFactor(illumination float64) float64 {
	return clamp01(1 - MoonPenalty*clamp01(illumination))
}

func clamp01(val float64) float64 {
	if math.IsNaN(val) {
		return 0
	}
	return math.Max(0, math.Min(1, val))
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
