// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the nmessenger configuration.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NMESSENGER_*)
//   - ~/.nmessenger/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	delay := cfg.Group.TableAnimationDelay()
//
// A Watcher reloads the file when it changes on disk:
//
//	w, err := config.NewWatcher(path, 200*time.Millisecond, func(c *config.Config, err error) { ... })
//	defer w.Close()
package config
