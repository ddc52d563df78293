// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/aurora-radar/internal/cities"
)

const (
	configEnv = "AURORARADAR"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	DefaultTextTpl    = "{{.BadgeIcon}} {{.Score}}"
	DefaultTooltipTpl = "{{.City.Name}}: {{loc .Badge.String}} ({{.Score}}/100)\n" +
		"{{loc \"probability\"}}: {{percent .Snapshot.Probability}}\n" +
		"{{loc \"clouds\"}}: {{cloudPercent .Snapshot.CloudCoverPct}}\n" +
		"{{loc \"darkness\"}}: {{floatFormat .Snapshot.DarknessFactor 2}}\n" +
		"{{loc \"moonphase\"}}: {{.MoonPhaseIcon}} {{loc .Snapshot.Astronomy.MoonPhase}}\n" +
		"{{loc \"updated\"}}: {{naturalTime .Snapshot.UpdatedAt}}"
)

// Config represents the application's configuration structure.
type Config struct {
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	Locale   string     `fig:"locale"`

	Providers struct {
		Timeout time.Duration `fig:"timeout" default:"10s"`
	} `fig:"providers"`

	Cache struct {
		// Allowed values: memory, redis
		Backend string `fig:"backend" default:"memory"`
	} `fig:"cache"`

	Redis struct {
		Addr     string `fig:"addr" default:"localhost:6379"`
		Password string `fig:"password"`
		DB       int    `fig:"db" default:"0"`
		Prefix   string `fig:"prefix" default:"aurora-radar"`
	} `fig:"redis"`

	Weather struct {
		// Requests per second sent to MET Norway. Zero selects the default.
		MetNorwayRate float64 `fig:"metno_rate" default:"1"`
	} `fig:"weather"`

	Watch struct {
		Interval time.Duration `fig:"interval" default:"5m"`
		Cities   []string      `fig:"cities"`
	} `fig:"watch"`

	Templates struct {
		Text    string `fig:"text"`
		Tooltip string `fig:"tooltip"`
	} `fig:"templates"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks the configuration values and fills in the defaults that depend on the
// environment.
func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("invalid provider timeout: %s", c.Providers.Timeout)
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Cache.Backend != CacheBackendMemory && c.Cache.Backend != CacheBackendRedis {
		return fmt.Errorf("invalid cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Redis.Addr == "" {
		return errors.New("redis cache backend requires an address")
	}
	if c.Weather.MetNorwayRate <= 0 {
		return fmt.Errorf("invalid MET Norway rate: %f", c.Weather.MetNorwayRate)
	}
	if c.Watch.Interval < time.Minute {
		return fmt.Errorf("invalid watch interval: %s", c.Watch.Interval)
	}
	if len(c.Watch.Cities) == 0 {
		c.Watch.Cities = []string{"rovaniemi"}
	}
	for _, slug := range c.Watch.Cities {
		if _, err := cities.BySlug(slug); err != nil {
			return fmt.Errorf("invalid watch city: %w", err)
		}
	}
	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
