// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo provides the coordinate type shared by all providers and the input validation
// for caller supplied coordinates.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

const (
	EarthRadius = 6371.0 // kilometers

	// coordPrecision is the precision used to quantize coordinates (0.01 degrees ≈ 1.1 km)
	coordPrecision = 1e-2
)

// ErrInvalidInput is returned for coordinates outside the EPSG:4326 range. It is the only
// error class that is handed back to callers of the conditions service.
var ErrInvalidInput = errors.New("invalid input")

var validate = validator.New()

// Coordinate represents a geographic coordinate in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// New returns a validated Coordinate.
func New(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate checks if the coordinate is valid according to the EPSG logic. NaN and infinite
// values are rejected as well.
func (c Coordinate) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: coordinate %s out of range: %w", ErrInvalidInput, c, err)
	}
	return nil
}

// Valid reports whether Validate succeeds.
func (c Coordinate) Valid() bool {
	return c.Validate() == nil
}

// DistanceKm returns the great-circle distance between two coordinates using the Haversine
// formula.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	dLat := (c.Lat - other.Lat) * math.Pi / 180
	dLon := (c.Lon - other.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// Quantize returns the coordinate rounded to the cache precision as integer steps.
func (c Coordinate) Quantize() (int32, int32) {
	return quantizeCoord(c.Lat), quantizeCoord(c.Lon)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}
