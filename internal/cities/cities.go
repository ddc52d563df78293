// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package cities is the registry of the Lapland viewing locations covered by aurora-radar.
package cities

import (
	"errors"
	"slices"
	"strings"

	"github.com/wneessen/aurora-radar/internal/geo"
)

// ErrUnknownCity is returned by BySlug if no city with the given slug is registered.
var ErrUnknownCity = errors.New("unknown city")

// City is a named viewing location with its ISO 3166-1 alpha-2 country code.
type City struct {
	Slug       string         `json:"slug"`
	Name       string         `json:"name"`
	Country    string         `json:"country"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

var registry = []City{
	{"rovaniemi", "Rovaniemi", "FI", geo.Coordinate{Lat: 66.5039, Lon: 25.7294}},
	{"levi", "Levi", "FI", geo.Coordinate{Lat: 67.8048, Lon: 24.8080}},
	{"saariselka", "Saariselkä", "FI", geo.Coordinate{Lat: 68.4190, Lon: 27.4136}},
	{"inari", "Inari", "FI", geo.Coordinate{Lat: 68.9058, Lon: 27.0288}},
	{"yllas", "Ylläs", "FI", geo.Coordinate{Lat: 67.6000, Lon: 24.1500}},
	{"kilpisjarvi", "Kilpisjärvi", "FI", geo.Coordinate{Lat: 69.0464, Lon: 20.7940}},
	{"luosto", "Luosto", "FI", geo.Coordinate{Lat: 67.1446, Lon: 26.9050}},
	{"utsjoki", "Utsjoki", "FI", geo.Coordinate{Lat: 69.9078, Lon: 27.0266}},
	{"kemi", "Kemi", "FI", geo.Coordinate{Lat: 65.7364, Lon: 24.5637}},
	{"abisko", "Abisko", "SE", geo.Coordinate{Lat: 68.3495, Lon: 18.8312}},
	{"kiruna", "Kiruna", "SE", geo.Coordinate{Lat: 67.8558, Lon: 20.2253}},
	{"jokkmokk", "Jokkmokk", "SE", geo.Coordinate{Lat: 66.6066, Lon: 19.8229}},
	{"tromso", "Tromsø", "NO", geo.Coordinate{Lat: 69.6492, Lon: 18.9553}},
	{"alta", "Alta", "NO", geo.Coordinate{Lat: 69.9689, Lon: 23.2716}},
	{"kirkenes", "Kirkenes", "NO", geo.Coordinate{Lat: 69.7271, Lon: 30.0450}},
}

// All returns a copy of all registered cities.
func All() []City {
	return slices.Clone(registry)
}

// BySlug looks up a city by its slug. The lookup is case-insensitive.
func BySlug(slug string) (City, error) {
	for _, city := range registry {
		if strings.EqualFold(city.Slug, slug) {
			return city, nil
		}
	}
	return City{}, ErrUnknownCity
}

// Nearest returns the registered city closest to the given coordinate and its distance in km.
func Nearest(coord geo.Coordinate) (City, float64) {
	nearest := registry[0]
	dist := coord.DistanceKm(nearest.Coordinate)
	for _, city := range registry[1:] {
		if d := coord.DistanceKm(city.Coordinate); d < dist {
			nearest, dist = city, d
		}
	}
	return nearest, dist
}
