// Package config loads codepane configuration from YAML files with
// user < project < environment precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/odvcencio/codepane/pkg/errors"
)

// Default configuration values exported for documentation and validation
const (
	DefaultTabSize            = 4
	DefaultLineHeight         = 1
	DefaultLineNumbers        = "absolute"
	DefaultLineNumberInterval = 10
	DefaultLineNumberWidth    = 5
	DefaultMinimapSide        = "none"
	DefaultMinimapWidth       = 8
	DefaultScrollbarWidth     = 1
	DefaultStickyMaxLines     = 5
	DefaultTheme              = "dark"
)

// Config represents the complete codepane configuration
type Config struct {
	Editor    EditorConfig    `yaml:"editor"`
	Minimap   MinimapConfig   `yaml:"minimap"`
	Scrollbar ScrollbarConfig `yaml:"scrollbar"`
	Sticky    StickyConfig    `yaml:"sticky"`
	Theme     ThemeConfig     `yaml:"theme"`
}

// EditorConfig controls the code view itself.
type EditorConfig struct {
	TabSize            int    `yaml:"tab_size"`
	LineHeight         int    `yaml:"line_height"`
	LineNumbers        string `yaml:"line_numbers"` // off, absolute, relative, interval
	LineNumberInterval int    `yaml:"line_number_interval"`
	LineNumberWidth    int    `yaml:"line_number_width"`
}

// MinimapConfig controls minimap placement.
type MinimapConfig struct {
	Side  string `yaml:"side"` // none, left, right
	Width int    `yaml:"width"`
}

// ScrollbarConfig controls the vertical scrollbar.
type ScrollbarConfig struct {
	Width int `yaml:"width"`
}

// StickyConfig controls the pinned header stack.
type StickyConfig struct {
	Enabled                bool `yaml:"enabled"`
	MaxLines               int  `yaml:"max_lines"`
	FollowHorizontalScroll bool `yaml:"follow_horizontal_scroll"`
}

// ThemeConfig selects the color theme.
type ThemeConfig struct {
	Name string `yaml:"name"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Editor: EditorConfig{
			TabSize:            DefaultTabSize,
			LineHeight:         DefaultLineHeight,
			LineNumbers:        DefaultLineNumbers,
			LineNumberInterval: DefaultLineNumberInterval,
			LineNumberWidth:    DefaultLineNumberWidth,
		},
		Minimap: MinimapConfig{
			Side:  DefaultMinimapSide,
			Width: DefaultMinimapWidth,
		},
		Scrollbar: ScrollbarConfig{
			Width: DefaultScrollbarWidth,
		},
		Sticky: StickyConfig{
			Enabled:                true,
			MaxLines:               DefaultStickyMaxLines,
			FollowHorizontalScroll: true,
		},
		Theme: ThemeConfig{
			Name: DefaultTheme,
		},
	}
}

// Load loads configuration from default locations with proper precedence
func Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load user config (~/.codepane/config.yaml)
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to HOME env var if UserHomeDir fails
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".codepane", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userConfigPath)
		}
	}

	// Load project config (./.codepane/config.yaml)
	projectConfigPath := filepath.Join(".", ".codepane", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectConfigPath)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "loading config").
			WithContext("path", path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigParse, "parsing YAML")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigParse, "parsing YAML")
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Zero values only win when the
// field is present in the raw document.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if override.Editor.TabSize != 0 {
		base.Editor.TabSize = override.Editor.TabSize
	}
	if override.Editor.LineHeight != 0 {
		base.Editor.LineHeight = override.Editor.LineHeight
	}
	if override.Editor.LineNumbers != "" {
		base.Editor.LineNumbers = override.Editor.LineNumbers
	}
	if override.Editor.LineNumberInterval != 0 {
		base.Editor.LineNumberInterval = override.Editor.LineNumberInterval
	}
	if override.Editor.LineNumberWidth != 0 {
		base.Editor.LineNumberWidth = override.Editor.LineNumberWidth
	}

	if override.Minimap.Side != "" {
		base.Minimap.Side = override.Minimap.Side
	}
	if override.Minimap.Width != 0 {
		base.Minimap.Width = override.Minimap.Width
	}

	if fieldSet(raw, "scrollbar", "width") {
		base.Scrollbar.Width = override.Scrollbar.Width
	}

	if fieldSet(raw, "sticky", "enabled") {
		base.Sticky.Enabled = override.Sticky.Enabled
	}
	if override.Sticky.MaxLines != 0 {
		base.Sticky.MaxLines = override.Sticky.MaxLines
	}
	if fieldSet(raw, "sticky", "follow_horizontal_scroll") {
		base.Sticky.FollowHorizontalScroll = override.Sticky.FollowHorizontalScroll
	}

	if override.Theme.Name != "" {
		base.Theme.Name = override.Theme.Name
	}
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODEPANE_TAB_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.TabSize = n
		}
	}
	if v := os.Getenv("CODEPANE_LINE_NUMBERS"); v != "" {
		cfg.Editor.LineNumbers = v
	}
	if v := os.Getenv("CODEPANE_STICKY_MAX_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sticky.MaxLines = n
		}
	}
	if v := os.Getenv("CODEPANE_STICKY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sticky.Enabled = b
		}
	}
	if v := os.Getenv("CODEPANE_THEME"); v != "" {
		cfg.Theme.Name = v
	}
}

var validLineNumberModes = map[string]bool{
	"off":      true,
	"absolute": true,
	"relative": true,
	"interval": true,
}

var validMinimapSides = map[string]bool{
	"none":  true,
	"left":  true,
	"right": true,
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Editor.TabSize < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "editor.tab_size must be positive").
			WithContext("tab_size", c.Editor.TabSize)
	}
	if c.Editor.LineHeight < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "editor.line_height must be positive").
			WithContext("line_height", c.Editor.LineHeight)
	}
	mode := strings.ToLower(c.Editor.LineNumbers)
	if !validLineNumberModes[mode] {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "editor.line_numbers must be one of off, absolute, relative, interval").
			WithContext("line_numbers", c.Editor.LineNumbers)
	}
	if mode == "interval" && c.Editor.LineNumberInterval < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "editor.line_number_interval must be positive").
			WithContext("line_number_interval", c.Editor.LineNumberInterval)
	}
	if c.Editor.LineNumberWidth < 0 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "editor.line_number_width must not be negative").
			WithContext("line_number_width", c.Editor.LineNumberWidth)
	}

	side := strings.ToLower(c.Minimap.Side)
	if !validMinimapSides[side] {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "minimap.side must be one of none, left, right").
			WithContext("side", c.Minimap.Side)
	}
	if side != "none" && c.Minimap.Width < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "minimap.width must be positive when a minimap is shown").
			WithContext("width", c.Minimap.Width)
	}

	if c.Scrollbar.Width < 0 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "scrollbar.width must not be negative").
			WithContext("width", c.Scrollbar.Width)
	}

	if c.Sticky.MaxLines < 1 || c.Sticky.MaxLines > 20 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "sticky.max_lines must be between 1 and 20").
			WithContext("max_lines", c.Sticky.MaxLines)
	}

	return nil
}

// fieldSet reports whether a key path is present in the raw document.
func fieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	current := any(raw)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		val, ok := m[key]
		if !ok {
			return false
		}
		current = val
	}
	return true
}
