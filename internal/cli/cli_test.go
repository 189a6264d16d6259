// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nmessenger-tui/internal/config"
	"github.com/jeranaias/nmessenger-tui/internal/history"
)

// run executes the root command with args in an isolated HOME.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"NMESSENGER_BATCH_FETCH", "NMESSENGER_THEME", "NMESSENGER_SENDER", "NMESSENGER_HISTORY", "NMESSENGER_LOG_LEVEL", "NMESSENGER_LOG_FILE"} {
		t.Setenv(k, "")
	}

	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "nmessenger version test\n", out)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd("test")
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chat", "seed", "config"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestChat_RequiresTerminal(t *testing.T) {
	if IsTTY() && IsStdoutTTY() {
		t.Skip("running on a terminal")
	}
	_, err := run(t, "chat")
	assert.ErrorIs(t, err, ErrNotTTY)
}

func TestConfigCmd_InitGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	out, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, "--config", path, "config", "init")
	assert.Error(t, err, "init must refuse to overwrite")

	_, err = run(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	_, err = run(t, "--config", path, "config", "set", "group.message_offset", "5")
	require.NoError(t, err)

	out, err = run(t, "--config", path, "config", "get", "group.message_offset")
	require.NoError(t, err)
	assert.Equal(t, "5", strings.TrimSpace(out))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Group.MessageOffset)
}

func TestConfigCmd_SetRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := run(t, "--config", path, "config", "set", "ui.theme", "neon")
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "invalid value must not be written")
}

func TestConfigCmd_ShowAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[messenger]")

	out, err = run(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "h.db")
	cfg, err := loadConfig(&globalFlags{historyPath: dbPath, logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.History.Path)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = loadConfig(&globalFlags{logLevel: "chatty"})
	assert.Error(t, err)
}

func TestSeedCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "--config", cfgPath, "--history", dbPath, "seed", "--count", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 12 messages")

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = run(t, "--config", cfgPath, "--history", dbPath, "seed", "--count", "0")
	assert.Error(t, err)
}

func TestSeed_AlternatesSides(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n, err := seed(context.Background(), store, "me", []string{"ada", "grace"}, 8, start, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	recs, err := store.Latest(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, recs, 8)

	var senders []string
	for _, r := range recs {
		senders = append(senders, r.Sender)
		assert.Equal(t, r.Sender != "me", r.Incoming)
	}
	assert.Equal(t, []string{"ada", "ada", "me", "me", "grace", "grace", "me", "me"}, senders)
	assert.Equal(t, "code", recs[4].Kind)
	assert.Equal(t, "go", recs[4].Language)
	assert.True(t, recs[7].SentAt.After(recs[0].SentAt))
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"ada", "grace"}, splitNames(" ada, ,grace,"))
	assert.Empty(t, splitNames(""))
}

func TestColorsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		noColor string
		force   string
		tty     bool
		want    bool
	}{
		{"tty", "", "", true, true},
		{"pipe", "", "", false, false},
		{"no color wins", "1", "1", true, false},
		{"forced on pipe", "", "1", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, colorsEnabled(tt.noColor, tt.force, tt.tty))
		})
	}
}

func TestColorProfile_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, ColorProfile())
}

func TestGetTerminalSize(t *testing.T) {
	w, h := GetTerminalSize()
	assert.Greater(t, w, 0)
	assert.Greater(t, h, 0)
}
