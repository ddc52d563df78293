// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wneessen/aurora-radar/internal/cities"
)

func newCitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the registered cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SLUG\tNAME\tCOUNTRY\tLAT\tLON")
			for _, city := range cities.All() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\n", city.Slug, city.Name, city.Country,
					city.Coordinate.Lat, city.Coordinate.Lon)
			}
			return w.Flush()
		},
	}
}
