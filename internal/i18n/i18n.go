// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package i18n provides the localizer for the badge names and labels of the watch output.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

//go:embed locale/*.po
var locales embed.FS

// Supported lists the languages a catalog is shipped for. English is the source language.
var Supported = []language.Tag{
	language.English,
	language.German,
	language.Finnish,
	language.Swedish,
}

var matcher = language.NewMatcher(Supported)

// New returns a localizer for loc. If loc is empty the system locale is detected. Unsupported
// locales fall back to English.
func New(loc string) (*spreak.Localizer, error) {
	tag := language.Make(loc)
	var err error
	if loc == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}
	_, idx, _ := matcher.Match(tag)
	tag = Supported[idx]

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	catalogs := make([]any, 0, len(Supported)-1)
	for _, lang := range Supported[1:] {
		catalogs = append(catalogs, lang)
	}
	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs("", localeFS),
		spreak.WithLanguage(catalogs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}
