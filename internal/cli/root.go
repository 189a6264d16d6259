// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the nmessenger command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/nmessenger-tui/internal/config"
	"github.com/jeranaias/nmessenger-tui/internal/history"
	"github.com/jeranaias/nmessenger-tui/internal/logging"
)

// AppName is the binary name.
const AppName = "nmessenger"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// ErrNotTTY is returned when the chat screen is started without a terminal.
var ErrNotTTY = errors.New("nmessenger chat needs an interactive terminal")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	historyPath string
	logLevel    string
}

// NewRootCmd builds the command tree. Running the root alone opens chat.
func NewRootCmd(version string) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "nmessenger - a terminal chat transcript",
		Long:          "nmessenger is a terminal chat client with grouped bubbles, typing indicators and paged history.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, &flags)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.nmessenger/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.historyPath, "history", "", "history database (overrides history.path)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides log.level)")

	cmd.AddCommand(
		newChatCmd(&flags),
		newSeedCmd(&flags),
		newConfigCmd(&flags),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCmd(Version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the config named by --config, or the default one, and
// applies the flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		if _, statErr := os.Stat(flags.configPath); os.IsNotExist(statErr) {
			cfg = config.Default()
			cfg.ApplyEnvOverrides()
			cfg.SetDefaults()
		} else {
			cfg, err = config.LoadFromPath(flags.configPath)
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.historyPath != "" {
		cfg.History.Path = flags.historyPath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath is where the active config file lives.
func configPath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.ConfigPath()
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	return store, nil
}

func openLog(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	return logging.FromConfig(cfg.Log)
}
