// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"

	"github.com/wneessen/aurora-radar/internal/vartype"
)

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    p.timeFormat,
		"localizedTime": p.localizedTime,
		"naturalTime":   p.naturalTime,
		"floatFormat":   p.floatFormat,
		"percent":       p.percent,
		"cloudPercent":  p.cloudPercent,
		"kp":            p.kp,
		"loc":           p.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) localizedTime(val time.Time) string {
	if val.IsZero() {
		return "-"
	}
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) naturalTime(val time.Time) string {
	return p.humanizer.NaturalTime(val)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	if val.IsZero() {
		return "-"
	}
	return val.Format(fmt)
}

func (p *Presenter) floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

// percent formats a fraction in [0,1] as a percentage.
func (p *Presenter) percent(val vartype.VarFloat64) string {
	if !val.IsSet() {
		return p.loc("nodata")
	}
	return fmt.Sprintf("%.0f%%", val.Value()*100)
}

func (p *Presenter) cloudPercent(val vartype.VarInt) string {
	if !val.IsSet() {
		return p.loc("nodata")
	}
	return fmt.Sprintf("%d%%", val.Value())
}

func (p *Presenter) kp(val vartype.VarFloat64) string {
	if !val.IsSet() {
		return p.loc("nodata")
	}
	return p.floatFormat(val.Value(), 1)
}

// EmojiWithSpace pads an emoji with spaces according to its display width, so that the
// following text lines up in the status bar.
func EmojiWithSpace(emoji string) string {
	if emoji == "" {
		return ""
	}
	width := runewidth.StringWidth(emoji)
	return emoji + strings.Repeat(" ", width+1)
}
