// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package main implements the aurora-radar command line interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wneessen/aurora-radar/internal/config"
	"github.com/wneessen/aurora-radar/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds the state shared by all subcommands. It is filled by the root command's
// PersistentPreRunE.
type app struct {
	confPath string
	envFile  string
	conf     *config.Config
	log      *logger.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := new(app)
	root := &cobra.Command{
		Use:   "aurora-radar",
		Short: "Northern lights viewing conditions for Lapland",
		Long: `aurora-radar combines the NOAA OVATION aurora probability, the cloud cover of the
coming night, the darkness and the moon brightness into a 0-100 viewing score.`,
		Version:           fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.PersistentFlags().StringVarP(&a.confPath, "config", "c", "", "path to the config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "path to an optional .env file")

	root.AddCommand(
		newConditionsCmd(a),
		newScoreCmd(),
		newCitiesCmd(),
		newWatchCmd(a),
	)
	return root
}

// init loads the .env file, the configuration and sets up the logger.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	log := logger.NewLogger(slog.LevelError, cmd.ErrOrStderr())

	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("failed to load env file", slog.String("file", a.envFile), logger.Err(err))
		return err
	}

	conf, err := loadConfig(a.confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		return err
	}

	a.conf = conf
	a.log = logger.NewLogger(conf.LogLevel, cmd.ErrOrStderr())
	return nil
}

// loadConfig reads the config file given on the command line, the one in the default location
// or falls back to the defaults.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := findConfigFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "aurora-radar", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
