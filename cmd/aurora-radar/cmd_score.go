// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wneessen/aurora-radar/internal/scoring"
)

func newScoreCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "score PROBABILITY CLOUDCOVER DARKNESS MOONBRIGHTNESS",
		Short: "Compute a viewing score from raw factors",
		Long: `Compute the viewing score from the aurora probability, the cloud cover fraction, the
darkness factor and the moon illumination fraction. All values are in the range 0 to 1;
values outside of it are clamped. Negative values have to follow a "--" separator.`,
		Example: `  aurora-radar score 0.8 0.1 1 0.2
  aurora-radar score -- -5 2 0.5 0.5`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]float64, len(args))
			for i, arg := range args {
				val, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				values[i] = val
			}

			result := scoring.Score(values[0], values[1], values[2], values[3])
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", result.Score, result.Badge)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result including its components as JSON")
	return cmd
}
