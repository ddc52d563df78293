// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/aurora-radar/internal/scoring"
)

// MoonPhaseIcon is a map where moon phase names are keys and their corresponding emoji representations are values.
var MoonPhaseIcon = map[string]string{
	"New Moon":        "🌑",
	"Waxing Crescent": "🌒",
	"First Quarter":   "🌓",
	"Waxing Gibbous":  "🌔",
	"Full Moon":       "🌕",
	"Waning Gibbous":  "🌖",
	"Third Quarter":   "🌗",
	"Waning Crescent": "🌘",
}

// BadgeIcon maps a badge to the icon shown in the text output.
var BadgeIcon = map[scoring.Badge]string{
	scoring.BadgePoor:      "☁️",
	scoring.BadgeFair:      "🌌",
	scoring.BadgeGood:      "✨",
	scoring.BadgeGreat:     "🌠",
	scoring.BadgeExcellent: "🔥",
}

var i18nVars = map[string]localize.MsgID{
	"probability":     "Aurora probability",
	"clouds":          "Cloud cover",
	"darkness":        "Darkness",
	"kp":              "Kp index",
	"moonphase":       "Moonphase",
	"updated":         "Updated",
	"sunrise":         "Sunrise",
	"sunset":          "Sunset",
	"score":           "Score",
	"nodata":          "No data",
	"poor":            "Poor",
	"fair":            "Fair",
	"good":            "Good",
	"great":           "Great",
	"excellent":       "Excellent",
	"new moon":        "New moon",
	"waxing crescent": "Waxing crescent",
	"first quarter":   "First quarter",
	"waxing gibbous":  "Waxing gibbous",
	"full moon":       "Full moon",
	"waning gibbous":  "Waning gibbous",
	"third quarter":   "Third quarter",
	"waning crescent": "Waning crescent",
}
