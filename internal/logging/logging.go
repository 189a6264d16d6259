// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog loggers handed to the messenger
// components. A terminal UI owns stdout, so logs go to a file or are
// discarded.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/nmessenger-tui/internal/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to w at the given level name
// ("debug", "info", "warn", "error", "disabled"). Unknown names fall back to
// info.
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = io.Discard
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Nop returns a logger that drops everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// OpenFile opens (appending) the log file at path and returns a logger for it
// along with the closer. An empty path yields Nop and a no-op closer.
func OpenFile(path, level string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return Nop(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, level), f, nil
}

// Component tags a logger with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// FromConfig builds the logger described by the [log] config section.
func FromConfig(c config.LogConfig) (zerolog.Logger, io.Closer, error) {
	return OpenFile(c.File, c.Level)
}
