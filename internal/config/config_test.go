package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"

	"github.com/llehouerou/charcoal/internal/param"
)

// setupEnv points XDG_CONFIG_HOME at a scratch dir and chdirs into an empty
// working dir so tests never see a real machine's config files.
func setupEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		xdg.Reload()
	})

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))
	xdg.Reload()

	workDir := filepath.Join(tmp, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("could not create working directory: %v", err)
	}
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("could not change to working directory: %v", err)
	}

	return tmp
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("could not create config directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.Definition != 100 {
		t.Errorf("Definition = %d, want 100", cfg.Defaults.Definition)
	}
	if cfg.Defaults.Chars != param.DefaultRamp {
		t.Errorf("Chars = %q, want %q", cfg.Defaults.Chars, param.DefaultRamp)
	}
	if cfg.Defaults.BG != "30" {
		t.Errorf("BG = %q, want %q", cfg.Defaults.BG, "30")
	}
	if cfg.Defaults.FG != "255" {
		t.Errorf("FG = %q, want %q", cfg.Defaults.FG, "255")
	}
	if cfg.Defaults.Correction != 0 {
		t.Errorf("Correction = %v, want 0", cfg.Defaults.Correction)
	}
	if cfg.Defaults.FPS != 5 {
		t.Errorf("FPS = %d, want 5", cfg.Defaults.FPS)
	}
	if cfg.Defaults.FrameCount != 10 {
		t.Errorf("FrameCount = %d, want 10", cfg.Defaults.FrameCount)
	}
	if cfg.Defaults.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Defaults.Workers)
	}
	if cfg.Tools.Convert != "convert" {
		t.Errorf("Convert = %q, want %q", cfg.Tools.Convert, "convert")
	}
	if cfg.Tools.Identify != "identify" {
		t.Errorf("Identify = %q, want %q", cfg.Tools.Identify, "identify")
	}
	if cfg.Tools.Font != "Courier" {
		t.Errorf("Font = %q, want %q", cfg.Tools.Font, "Courier")
	}
	if cfg.Output.MP4 {
		t.Error("MP4 = true, want false")
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("MaxEntries = %d, want 100", cfg.History.MaxEntries)
	}
	if !cfg.HistoryEnabled() {
		t.Error("HistoryEnabled() = false, want true")
	}
}

func TestLoad_NoFiles(t *testing.T) {
	setupEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Defaults != want.Defaults {
		t.Errorf("Defaults = %+v, want %+v", cfg.Defaults, want.Defaults)
	}
	if cfg.Tools != want.Tools {
		t.Errorf("Tools = %+v, want %+v", cfg.Tools, want.Tools)
	}
}

func TestLoad_LocalFile(t *testing.T) {
	setupEnv(t)

	writeConfig(t, "config.toml", `
[defaults]
definition = 80
chars = " .x@"
bg = "#1e1e2e"

[output]
mp4 = true
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Defaults.Definition != 80 {
		t.Errorf("Definition = %d, want 80", cfg.Defaults.Definition)
	}
	if cfg.Defaults.Chars != " .x@" {
		t.Errorf("Chars = %q, want %q", cfg.Defaults.Chars, " .x@")
	}
	if cfg.Defaults.BG != "#1e1e2e" {
		t.Errorf("BG = %q, want %q", cfg.Defaults.BG, "#1e1e2e")
	}
	if !cfg.Output.MP4 {
		t.Error("MP4 = false, want true")
	}

	// Untouched settings keep their defaults.
	if cfg.Defaults.FG != "255" {
		t.Errorf("FG = %q, want %q", cfg.Defaults.FG, "255")
	}
	if cfg.Defaults.FrameCount != 10 {
		t.Errorf("FrameCount = %d, want 10", cfg.Defaults.FrameCount)
	}
}

func TestLoad_XDGFile(t *testing.T) {
	tmp := setupEnv(t)

	writeConfig(t, filepath.Join(tmp, "xdg", "charcoal", "config.toml"), `
[defaults]
definition = 60
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Defaults.Definition != 60 {
		t.Errorf("Definition = %d, want 60", cfg.Defaults.Definition)
	}
}

// TestLoad_LocalOverridesXDG verifies the lookup order: the file in the
// working directory wins over the XDG one.
func TestLoad_LocalOverridesXDG(t *testing.T) {
	tmp := setupEnv(t)

	writeConfig(t, filepath.Join(tmp, "xdg", "charcoal", "config.toml"), `
[defaults]
definition = 60
fps = 12
`)
	writeConfig(t, "config.toml", `
[defaults]
definition = 90
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Defaults.Definition != 90 {
		t.Errorf("Definition = %d, want 90 (local wins)", cfg.Defaults.Definition)
	}
	// Settings only the XDG file sets still apply.
	if cfg.Defaults.FPS != 12 {
		t.Errorf("FPS = %d, want 12", cfg.Defaults.FPS)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	tmp := setupEnv(t)

	// A local file that must be ignored when an explicit path is given.
	writeConfig(t, "config.toml", `
[defaults]
definition = 90
`)

	custom := filepath.Join(tmp, "custom.toml")
	writeConfig(t, custom, `
[defaults]
definition = 42
`)

	cfg, err := Load(custom)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Defaults.Definition != 42 {
		t.Errorf("Definition = %d, want 42", cfg.Defaults.Definition)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	tmp := setupEnv(t)

	_, err := Load(filepath.Join(tmp, "nope.toml"))
	if err == nil {
		t.Error("Load() expected error for missing explicit config, got nil")
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	setupEnv(t)

	writeConfig(t, "config.toml", "invalid = [[[")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}

func TestLoad_ToolPathExpansion(t *testing.T) {
	setupEnv(t)

	writeConfig(t, "config.toml", `
[tools]
convert = "~/bin/convert"
font = "~/fonts/mono.ttf"
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}
	if want := filepath.Join(home, "bin", "convert"); cfg.Tools.Convert != want {
		t.Errorf("Convert = %q, want %q", cfg.Tools.Convert, want)
	}
	if want := filepath.Join(home, "fonts", "mono.ttf"); cfg.Tools.Font != want {
		t.Errorf("Font = %q, want %q", cfg.Tools.Font, want)
	}
	// Untouched tool keeps the bare default.
	if cfg.Tools.Identify != "identify" {
		t.Errorf("Identify = %q, want %q", cfg.Tools.Identify, "identify")
	}
}

// TestLoad_NormalizeInvalid verifies that out-of-range values fall back to
// the built-in defaults instead of erroring.
func TestLoad_NormalizeInvalid(t *testing.T) {
	setupEnv(t)

	writeConfig(t, "config.toml", `
[defaults]
definition = -5
fps = 0
frame_count = -1
workers = -4
correction = -0.5
chars = ""
bg = ""
fg = ""

[history]
max_entries = 0
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Defaults.Definition != 100 {
		t.Errorf("Definition = %d, want 100", cfg.Defaults.Definition)
	}
	if cfg.Defaults.Chars != param.DefaultRamp {
		t.Errorf("Chars = %q, want %q", cfg.Defaults.Chars, param.DefaultRamp)
	}
	if cfg.Defaults.BG != "30" {
		t.Errorf("BG = %q, want %q", cfg.Defaults.BG, "30")
	}
	if cfg.Defaults.FG != "255" {
		t.Errorf("FG = %q, want %q", cfg.Defaults.FG, "255")
	}
	if cfg.Defaults.FPS != 5 {
		t.Errorf("FPS = %d, want 5", cfg.Defaults.FPS)
	}
	if cfg.Defaults.FrameCount != 10 {
		t.Errorf("FrameCount = %d, want 10", cfg.Defaults.FrameCount)
	}
	if cfg.Defaults.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Defaults.Workers)
	}
	if cfg.Defaults.Correction != 0 {
		t.Errorf("Correction = %v, want 0", cfg.Defaults.Correction)
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("MaxEntries = %d, want 100", cfg.History.MaxEntries)
	}
}

func TestHistoryEnabled(t *testing.T) {
	setupEnv(t)

	writeConfig(t, "config.toml", `
[history]
enabled = false
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HistoryEnabled() {
		t.Error("HistoryEnabled() = true, want false")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/bin/convert",
			expected: filepath.Join(home, "bin", "convert"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/bin/convert",
			expected: "/usr/local/bin/convert",
		},
		{
			name:     "bare name unchanged",
			input:    "convert",
			expected: "convert",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
