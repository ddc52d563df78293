// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wneessen/aurora-radar/internal/i18n"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/service"
)

func newWatchCmd(a *app) *cobra.Command {
	var watchCities []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically print the conditions as waybar JSON",
		Long: `Refresh the conditions of the configured cities in the configured interval and print
them as one JSON object per line, as expected by a waybar custom module. Sending SIGUSR1
triggers an immediate refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(watchCities) > 0 {
				a.conf.Watch.Cities = watchCities
				if err := a.conf.Validate(); err != nil {
					return err
				}
			}

			t, err := i18n.New(a.conf.Locale)
			if err != nil {
				a.log.Error("failed to initialize localizer", logger.Err(err))
				return err
			}
			serv, err := service.New(a.conf, a.log, t, service.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				a.log.Error("failed to initialize aurora-radar watch service", logger.Err(err))
				return err
			}

			a.log.Info(t.Get("starting aurora-radar watch service"), slog.String("version", version),
				slog.String("commit", commit), slog.String("date", date),
				slog.String("cities", strings.Join(a.conf.Watch.Cities, ",")))
			if err = serv.Run(cmd.Context()); err != nil {
				a.log.Error(t.Get("failed to start aurora-radar watch service"), logger.Err(err))
				return fmt.Errorf("watch service failed: %w", err)
			}
			a.log.Info(t.Get("shutting down aurora-radar watch service"))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&watchCities, "city", nil, "city slugs to watch (overrides the config)")
	return cmd
}
