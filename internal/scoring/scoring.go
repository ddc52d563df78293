// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package scoring maps the normalized viewing inputs to a score between 0 and 100 and a badge.
package scoring

import (
	"fmt"
	"math"

	"github.com/wneessen/aurora-radar/internal/astronomy"
)

// Badge is the human readable tier of a score.
type Badge int

const (
	BadgePoor Badge = iota
	BadgeFair
	BadgeGood
	BadgeGreat
	BadgeExcellent
)

var badgeNames = map[Badge]string{
	BadgePoor:      "Poor",
	BadgeFair:      "Fair",
	BadgeGood:      "Good",
	BadgeGreat:     "Great",
	BadgeExcellent: "Excellent",
}

func (b Badge) String() string {
	if name, ok := badgeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Badge(%d)", int(b))
}

// MarshalText implements encoding.TextMarshaler so badges are encoded by name.
func (b Badge) MarshalText() ([]byte, error) {
	if _, ok := badgeNames[b]; !ok {
		return nil, fmt.Errorf("unknown badge: %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Badge) UnmarshalText(text []byte) error {
	for badge, name := range badgeNames {
		if name == string(text) {
			*b = badge
			return nil
		}
	}
	return fmt.Errorf("unknown badge: %q", text)
}

// Components are the clamped factors a score was computed from.
type Components struct {
	Probability float64 `json:"probability"`
	Visibility  float64 `json:"visibility"`
	Darkness    float64 `json:"darkness"`
	MoonOk      float64 `json:"moonOk"`
}

// Result is the outcome of Score.
type Result struct {
	Score      int        `json:"score"`
	Badge      Badge      `json:"badge"`
	Components Components `json:"components"`
}

// Score computes the viewing score from the aurora probability, the cloud cover fraction, the
// darkness factor and the moon illumination fraction. Every input is clamped to [0,1] first,
// NaN counts as 0.
func Score(probability, cloudCover, darkness, moonBrightness float64) Result {
	c := Components{
		Probability: Clamp01(probability),
		Visibility:  1 - Clamp01(cloudCover),
		Darkness:    Clamp01(darkness),
		MoonOk:      astronomy.MoonOkFactor(Clamp01(moonBrightness)),
	}
	score := int(math.Round(100 * c.Probability * c.Visibility * c.Darkness * c.MoonOk))
	score = max(0, min(100, score))

	return Result{
		Score:      score,
		Badge:      BadgeFor(score),
		Components: c,
	}
}

// BadgeFor returns the badge tier for a score.
func BadgeFor(score int) Badge {
	switch {
	case score >= 80:
		return BadgeExcellent
	case score >= 60:
		return BadgeGreat
	case score >= 40:
		return BadgeGood
	case score >= 20:
		return BadgeFair
	default:
		return BadgePoor
	}
}

// Clamp01 limits val to [0,1]. NaN is treated as 0.
func Clamp01(val float64) float64 {
	if math.IsNaN(val) {
		return 0
	}
	return math.Max(0, math.Min(1, val))
}
