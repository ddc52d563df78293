// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wneessen/aurora-radar/internal/cities"
	"github.com/wneessen/aurora-radar/internal/geo"
	"github.com/wneessen/aurora-radar/internal/i18n"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/presenter"
	"github.com/wneessen/aurora-radar/internal/service"
)

const (
	formatJSON = "json"
	formatText = "text"
)

type conditionsFlags struct {
	city     string
	lat      float64
	lon      float64
	format   string
	readings bool
}

func newConditionsCmd(a *app) *cobra.Command {
	flags := new(conditionsFlags)
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Show the current viewing conditions",
		Long: `Show the current aurora viewing conditions for a registered city or for arbitrary
coordinates. With --readings the normalized reading of every data source is shown instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConditions(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.city, "city", "", "slug of a registered city (see the cities command)")
	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&flags.lon, "lon", 0, "longitude in decimal degrees")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "output format: json or text")
	cmd.Flags().BoolVar(&flags.readings, "readings", false, "show the raw readings of every data source")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")
	cmd.MarkFlagsMutuallyExclusive("city", "lon")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	return cmd
}

func (a *app) runConditions(cmd *cobra.Command, flags *conditionsFlags) error {
	if flags.format != formatJSON && flags.format != formatText {
		return fmt.Errorf("invalid output format: %s", flags.format)
	}
	city, err := resolveCity(cmd, flags)
	if err != nil {
		return err
	}

	cond, closer, err := service.NewConditions(a.conf, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			a.log.Error("failed to close cache backend", logger.Err(err))
		}
	}()

	ctx := cmd.Context()
	if flags.readings {
		readings, err := cond.Readings(ctx, city.Coordinate.Lat, city.Coordinate.Lon, city.Country)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), readings)
	}

	snapshot, err := cond.GetConditions(ctx, city.Coordinate.Lat, city.Coordinate.Lon)
	if err != nil {
		return err
	}
	if flags.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), snapshot)
	}

	lang, err := i18n.New(a.conf.Locale)
	if err != nil {
		return fmt.Errorf("failed to initialize localizer: %w", err)
	}
	pres, err := presenter.New(a.conf, lang)
	if err != nil {
		return err
	}
	output, err := pres.Render(pres.BuildContext(city, snapshot))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output.Tooltip)
	return err
}

// resolveCity returns the registered city given with --city, or a city named after the
// coordinates given with --lat and --lon.
func resolveCity(cmd *cobra.Command, flags *conditionsFlags) (cities.City, error) {
	if flags.city != "" {
		return cities.BySlug(flags.city)
	}
	if !cmd.Flags().Changed("lat") {
		return cities.City{}, errors.New("either --city or --lat and --lon are required")
	}

	coord := geo.Coordinate{Lat: flags.lat, Lon: flags.lon}
	nearest, _ := cities.Nearest(coord)
	return cities.City{Name: coord.String(), Country: nearest.Country, Coordinate: coord}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
