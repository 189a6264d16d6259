// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"io"
	"time"

	"github.com/jeranaias/nmessenger-tui/internal/config"
)

// configDebounce collapses editor save bursts into one reload.
const configDebounce = 200 * time.Millisecond

// WatchConfig reloads path on change and applies it on the event loop. A
// file that fails to load or validate leaves the running config in place.
func (m *Model) WatchConfig(path string) (io.Closer, error) {
	return config.NewWatcher(path, configDebounce, func(cfg *config.Config, err error) {
		m.ui.Async(func() {
			if err != nil {
				m.log.Warn().Err(err).Str("path", path).Msg("config reload failed")
				m.fail("config error: " + err.Error())
				return
			}
			m.ApplyConfig(cfg)
		})
	})
}
