// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/nmessenger-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete nmessenger configuration.
type Config struct {
	Version string `toml:"version"`

	Messenger MessengerConfig `toml:"messenger"`
	Group     GroupConfig     `toml:"group"`
	UI        UIConfig        `toml:"ui"`
	History   HistoryConfig   `toml:"history"`
	Log       LogConfig       `toml:"log"`
}

// MessengerConfig tunes the message list.
type MessengerConfig struct {
	// DoesBatchFetch enables loading older messages when scrolling to the top.
	DoesBatchFetch bool `toml:"does_batch_fetch"`
	// LeadingScreens is how many screens from the head a batch fetch starts.
	LeadingScreens    float64 `toml:"leading_screens"`
	RowAnimationMs    int     `toml:"row_animation_ms"`
	ScrollAnimationMs int     `toml:"scroll_animation_ms"`
	// StickToBottom keeps the newest message in view while the list grows.
	StickToBottom bool `toml:"stick_to_bottom"`
}

// GroupConfig tunes message group animations.
type GroupConfig struct {
	// AnimationDelayMs is extra delay added before a group commits its
	// inner table update.
	AnimationDelayMs      int `toml:"animation_delay_ms"`
	AvatarAnimationMs     int `toml:"avatar_animation_ms"`
	TableAnimationDelayMs int `toml:"table_animation_delay_ms"`
	// MessageOffset is the column gap between the avatar and the bubbles.
	MessageOffset int `toml:"message_offset"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme          string `toml:"theme"`
	Markdown       bool   `toml:"markdown"`
	ShowTimestamps bool   `toml:"show_timestamps"`
	// Sender is the display name used for outgoing messages.
	Sender string `toml:"sender"`
}

// HistoryConfig controls the message history database.
type HistoryConfig struct {
	// Path to the SQLite database (empty = ~/.nmessenger/history.db).
	Path     string `toml:"path"`
	PageSize int    `toml:"page_size"`
	// FetchIntervalMs is the minimum time between history pages.
	FetchIntervalMs int `toml:"fetch_interval_ms"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level string `toml:"level"`
	// File is where logs are written; empty discards them.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is the config file format version.
const CurrentVersion = "1"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Messenger: MessengerConfig{
			DoesBatchFetch:    true,
			LeadingScreens:    2,
			RowAnimationMs:    300,
			ScrollAnimationMs: 250,
			StickToBottom:     true,
		},
		Group: GroupConfig{
			AnimationDelayMs:      0,
			AvatarAnimationMs:     150,
			TableAnimationDelayMs: 300,
			MessageOffset:         2,
		},
		UI: UIConfig{
			Theme:          "dark",
			Markdown:       true,
			ShowTimestamps: true,
			Sender:         "me",
		},
		History: HistoryConfig{
			PageSize:        20,
			FetchIntervalMs: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RowAnimation returns the list row animation as a duration.
func (m MessengerConfig) RowAnimation() time.Duration {
	return time.Duration(m.RowAnimationMs) * time.Millisecond
}

// ScrollAnimation returns the list scroll animation as a duration.
func (m MessengerConfig) ScrollAnimation() time.Duration {
	return time.Duration(m.ScrollAnimationMs) * time.Millisecond
}

// AnimationDelay returns the extra group delay as a duration.
func (g GroupConfig) AnimationDelay() time.Duration {
	return time.Duration(g.AnimationDelayMs) * time.Millisecond
}

// AvatarAnimation returns the avatar slide duration.
func (g GroupConfig) AvatarAnimation() time.Duration {
	return time.Duration(g.AvatarAnimationMs) * time.Millisecond
}

// TableAnimationDelay returns the inner table animation duration.
func (g GroupConfig) TableAnimationDelay() time.Duration {
	return time.Duration(g.TableAnimationDelayMs) * time.Millisecond
}

// FetchInterval returns the minimum time between history pages.
func (h HistoryConfig) FetchInterval() time.Duration {
	return time.Duration(h.FetchIntervalMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the nmessenger configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".nmessenger"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath resolves the history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.nmessenger/config.toml, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# nmessenger configuration file\n")
	buf.WriteString("# Generated by nmessenger - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Messenger.LeadingScreens < 0 {
		errs = append(errs, ValidationError{
			Field:   "messenger.leading_screens",
			Message: fmt.Sprintf("must not be negative, got %g", c.Messenger.LeadingScreens),
		})
	}

	durations := []struct {
		field string
		value int
	}{
		{"messenger.row_animation_ms", c.Messenger.RowAnimationMs},
		{"messenger.scroll_animation_ms", c.Messenger.ScrollAnimationMs},
		{"group.animation_delay_ms", c.Group.AnimationDelayMs},
		{"group.avatar_animation_ms", c.Group.AvatarAnimationMs},
		{"group.table_animation_delay_ms", c.Group.TableAnimationDelayMs},
		{"history.fetch_interval_ms", c.History.FetchIntervalMs},
	}
	for _, d := range durations {
		if d.value < 0 || d.value > 10000 {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("must be between 0 and 10000, got %d", d.value),
			})
		}
	}

	if c.Group.MessageOffset < 0 || c.Group.MessageOffset > 20 {
		errs = append(errs, ValidationError{
			Field:   "group.message_offset",
			Message: fmt.Sprintf("must be between 0 and 20, got %d", c.Group.MessageOffset),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	if c.History.PageSize < 1 || c.History.PageSize > 500 {
		errs = append(errs, ValidationError{
			Field:   "history.page_size",
			Message: fmt.Sprintf("must be between 1 and 500, got %d", c.History.PageSize),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error, disabled", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields that have no meaningful zero value.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.Sender == "" {
		c.UI.Sender = defaults.UI.Sender
	}
	if c.History.PageSize == 0 {
		c.History.PageSize = defaults.History.PageSize
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - NMESSENGER_BATCH_FETCH: "1"/"true" enables, anything else disables
//   - NMESSENGER_THEME: overrides ui.theme
//   - NMESSENGER_SENDER: overrides ui.sender
//   - NMESSENGER_HISTORY: overrides history.path
//   - NMESSENGER_LOG_LEVEL: overrides log.level
//   - NMESSENGER_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NMESSENGER_BATCH_FETCH"); v != "" {
		c.Messenger.DoesBatchFetch = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("NMESSENGER_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("NMESSENGER_SENDER"); v != "" {
		c.UI.Sender = v
	}
	if v := os.Getenv("NMESSENGER_HISTORY"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("NMESSENGER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NMESSENGER_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "group.message_offset").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent ("row_animation_ms" -> "RowAnimationMs").
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"messenger.does_batch_fetch",
		"messenger.leading_screens",
		"messenger.row_animation_ms",
		"messenger.scroll_animation_ms",
		"messenger.stick_to_bottom",
		"group.animation_delay_ms",
		"group.avatar_animation_ms",
		"group.table_animation_delay_ms",
		"group.message_offset",
		"ui.theme",
		"ui.markdown",
		"ui.show_timestamps",
		"ui.sender",
		"history.path",
		"history.page_size",
		"history.fetch_interval_ms",
		"log.level",
		"log.file",
	}
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML for display.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
