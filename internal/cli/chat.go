// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/nmessenger-tui/internal/app"
	"github.com/jeranaias/nmessenger-tui/internal/ui/styles"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the chat screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags)
		},
	}
}

func runChat(cmd *cobra.Command, flags *globalFlags) error {
	if !IsTTY() || !IsStdoutTTY() {
		return ErrNotTTY
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log, closer, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	styles.UseProfile(ColorProfile())

	m, err := app.New(cfg, store, log)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	m.Attach(p)

	if path, err := configPath(flags); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			w, err := m.WatchConfig(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config hot reload disabled")
			} else {
				defer w.Close()
			}
		}
	}

	log.Info().Str("history", store.Path()).Msg("chat started")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running %s: %w", AppName, err)
	}
	return nil
}
