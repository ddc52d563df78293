// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders conditions snapshots into the waybar compatible output of the watch
// service.
package presenter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"

	"github.com/wneessen/aurora-radar/internal/cities"
	"github.com/wneessen/aurora-radar/internal/conditions"
	"github.com/wneessen/aurora-radar/internal/config"
	"github.com/wneessen/aurora-radar/internal/scoring"
)

const (
	OutputClass   = "aurora-radar"
	DegradedClass = "degraded"

	textSeparator    = " "
	tooltipSeparator = "\n\n"
)

var humanizers = humanize.MustNew(humanize.WithLocale(de.New()))

// Output is the JSON object a waybar custom module expects.
type Output struct {
	Text    string   `json:"text"`
	Tooltip string   `json:"tooltip"`
	Class   []string `json:"class"`
}

// TemplateContext is the data the text and tooltip templates are executed with.
type TemplateContext struct {
	City     cities.City
	Snapshot conditions.Snapshot

	Score              int
	Badge              scoring.Badge
	BadgeIcon          string
	BadgeIconWithSpace string
	MoonPhaseIcon      string

	// Degraded is true if at least one source did not contribute fresh data.
	Degraded bool
}

type Presenter struct {
	TextTemplate    *template.Template
	TooltipTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New parses the configured templates and test-renders them, so that template errors surface
// at startup instead of on the first output.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if loc == nil {
		return nil, errors.New("localizer is required")
	}

	pres := &Presenter{
		localizer: loc,
		humanizer: humanizers.CreateHumanizer(loc.Language()),
	}

	tpl, err := template.New("text").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	pres.TextTemplate = tpl

	tpl, err = template.New("tooltip").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Tooltip)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tooltip template: %w", err)
	}
	pres.TooltipTemplate = tpl

	sample := pres.BuildContext(cities.All()[0], conditions.Snapshot{})
	if _, err = pres.Render(sample); err != nil {
		return nil, err
	}

	return pres, nil
}

// BuildContext returns the template context for the snapshot of a city.
func (p *Presenter) BuildContext(city cities.City, snapshot conditions.Snapshot) TemplateContext {
	icon := BadgeIcon[snapshot.Badge]
	tplCtx := TemplateContext{
		City:               city,
		Snapshot:           snapshot,
		Score:              snapshot.Score,
		Badge:              snapshot.Badge,
		BadgeIcon:          icon,
		BadgeIconWithSpace: EmojiWithSpace(icon),
		MoonPhaseIcon:      MoonPhaseIcon[snapshot.Astronomy.MoonPhase],
	}
	for _, fresh := range snapshot.SourceFreshness {
		if fresh.Status != conditions.StatusOK {
			tplCtx.Degraded = true
		}
	}
	return tplCtx
}

// Render executes the templates for every context and joins the results into a single Output.
// The CSS class reflects the best badge among the contexts.
func (p *Presenter) Render(contexts ...TemplateContext) (Output, error) {
	output := Output{Class: []string{OutputClass}}
	if len(contexts) == 0 {
		return output, errors.New("no template context to render")
	}

	texts := make([]string, 0, len(contexts))
	tooltips := make([]string, 0, len(contexts))
	best := contexts[0].Badge
	degraded := false
	for _, tplCtx := range contexts {
		buf := bytes.NewBuffer(nil)
		if err := p.TextTemplate.Execute(buf, tplCtx); err != nil {
			return output, fmt.Errorf("failed to render text template: %w", err)
		}
		texts = append(texts, buf.String())

		buf.Reset()
		if err := p.TooltipTemplate.Execute(buf, tplCtx); err != nil {
			return output, fmt.Errorf("failed to render tooltip template: %w", err)
		}
		tooltips = append(tooltips, buf.String())

		if tplCtx.Badge > best {
			best = tplCtx.Badge
		}
		degraded = degraded || tplCtx.Degraded
	}

	output.Text = strings.Join(texts, textSeparator)
	output.Tooltip = strings.Join(tooltips, tooltipSeparator)
	output.Class = append(output.Class, strings.ToLower(best.String()))
	if degraded {
		output.Class = append(output.Class, DegradedClass)
	}
	return output, nil
}
