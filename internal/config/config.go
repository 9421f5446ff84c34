// Package config loads charcoal's TOML configuration. Every setting has a
// built-in default; config files only override.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/charcoal/internal/param"
)

type Config struct {
	Defaults DefaultsConfig `koanf:"defaults"`
	Tools    ToolsConfig    `koanf:"tools"`
	Output   OutputConfig   `koanf:"output"`
	History  HistoryConfig  `koanf:"history"`
}

// DefaultsConfig holds fallback parameter values used when the matching CLI
// flag is absent. Colors are kept as strings so a config file can hold
// grayscale values or #rrggbb alike; the CLI layer parses them.
type DefaultsConfig struct {
	Definition int     `koanf:"definition"`
	Chars      string  `koanf:"chars"`
	BG         string  `koanf:"bg"`
	FG         string  `koanf:"fg"`
	Correction float64 `koanf:"correction"`  // 0 means auto-measure
	FPS        int     `koanf:"fps"`         // image sequences only
	FrameCount int     `koanf:"frame_count"` // image sequences only
	Workers    int     `koanf:"workers"`     // 0 means one per CPU
}

// ToolsConfig holds external tool locations. ffmpeg and ffprobe are resolved
// from PATH by the ffmpeg bindings and are deliberately not configurable here.
type ToolsConfig struct {
	Convert  string `koanf:"convert"`
	Identify string `koanf:"identify"`
	Font     string `koanf:"font"` // font name or path to a font file
}

// OutputConfig selects container defaults for generated sequences.
type OutputConfig struct {
	MP4 bool `koanf:"mp4"` // image sequences default to GIF unless set
}

// HistoryConfig controls the run ledger.
type HistoryConfig struct {
	Enabled    *bool `koanf:"enabled"` // default: true
	MaxEntries int   `koanf:"max_entries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Definition: 100,
			Chars:      param.DefaultRamp,
			BG:         "30",
			FG:         "255",
			Correction: 0,
			FPS:        5,
			FrameCount: 10,
			Workers:    0,
		},
		Tools: ToolsConfig{
			Convert:  "convert",
			Identify: "identify",
			Font:     "Courier",
		},
		Output: OutputConfig{MP4: false},
		History: HistoryConfig{
			MaxEntries: 100,
		},
	}
}

// Load reads configuration. With an explicit path only that file is read and
// it must exist; otherwise the default locations are tried in order (last
// wins) and missing files are fine.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	if explicitPath != "" {
		if err := k.Load(file.Provider(expandPath(explicitPath)), toml.Parser()); err != nil {
			return nil, err
		}
	} else {
		for _, path := range getConfigPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in tool paths
	cfg.Tools.Convert = expandPath(cfg.Tools.Convert)
	cfg.Tools.Identify = expandPath(cfg.Tools.Identify)
	cfg.Tools.Font = expandPath(cfg.Tools.Font)

	cfg.normalize()

	return cfg, nil
}

// normalize replaces out-of-range values with the built-in defaults.
func (c *Config) normalize() {
	def := Default()

	if c.Defaults.Definition < 1 {
		c.Defaults.Definition = def.Defaults.Definition
	}
	if c.Defaults.Chars == "" {
		c.Defaults.Chars = def.Defaults.Chars
	}
	if c.Defaults.BG == "" {
		c.Defaults.BG = def.Defaults.BG
	}
	if c.Defaults.FG == "" {
		c.Defaults.FG = def.Defaults.FG
	}
	if c.Defaults.Correction < 0 {
		c.Defaults.Correction = 0
	}
	if c.Defaults.FPS < 1 {
		c.Defaults.FPS = def.Defaults.FPS
	}
	if c.Defaults.FrameCount < 1 {
		c.Defaults.FrameCount = def.Defaults.FrameCount
	}
	if c.Defaults.Workers < 0 {
		c.Defaults.Workers = 0
	}
	if c.Tools.Convert == "" {
		c.Tools.Convert = def.Tools.Convert
	}
	if c.Tools.Identify == "" {
		c.Tools.Identify = def.Tools.Identify
	}
	if c.Tools.Font == "" {
		c.Tools.Font = def.Tools.Font
	}
	if c.History.MaxEntries < 1 {
		c.History.MaxEntries = def.History.MaxEntries
	}
}

// HistoryEnabled reports whether runs should be recorded (default true).
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/charcoal/config.toml
		filepath.Join(xdg.ConfigHome, "charcoal", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
