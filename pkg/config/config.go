// Package config loads the Noats configuration file.
//
// The file is YAML and optional; every field has a default. A handful of
// environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/noats/pkg/hotkey"
	"github.com/aretw0/noats/pkg/widget"
)

// FileName is the configuration file looked up in the data directory.
const FileName = "config.yaml"

// Environment overrides.
const (
	EnvDataDir  = "NOATS_DATA_DIR"
	EnvLogLevel = "NOATS_LOG_LEVEL"
)

// Config is the full set of user settings.
type Config struct {
	DataDir         string            `yaml:"data_dir"`
	Format          string            `yaml:"format"`
	LogLevel        string            `yaml:"log_level"`
	SaveDebounce    Duration          `yaml:"save_debounce"`
	ResizeDebounce  Duration          `yaml:"resize_debounce"`
	MinHeight       float64           `yaml:"min_height"`
	MinAspect       float64           `yaml:"min_aspect"`
	MaxAspect       float64           `yaml:"max_aspect"`
	DragMargin      float64           `yaml:"drag_margin"`
	DuplicateOffset float64           `yaml:"duplicate_offset"`
	WatchExternal   bool              `yaml:"watch_external"`
	ThemesFile      string            `yaml:"themes_file"`
	Hotkeys         map[string]string `yaml:"hotkeys"`
	Screens         []Screen          `yaml:"screens"`
}

// Screen is the working area of one monitor. The first entry is primary.
type Screen struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// DefaultDataDir is the per-user directory holding state and config.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "Noats")
}

// Default returns the built-in configuration.
func Default() *Config {
	l := widget.DefaultLayout()
	return &Config{
		DataDir:         DefaultDataDir(),
		Format:          "json",
		LogLevel:        "info",
		SaveDebounce:    Duration{200 * time.Millisecond},
		ResizeDebounce:  Duration{l.ResizeDebounce},
		MinHeight:       l.MinHeight,
		MinAspect:       l.MinAspect,
		MaxAspect:       l.MaxAspect,
		DragMargin:      l.DragMargin,
		DuplicateOffset: 20,
	}
}

// Load reads path, or config.yaml in the default data directory when path
// is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		dataDir := DefaultDataDir()
		if v := os.Getenv(EnvDataDir); v != "" {
			dataDir = v
		}
		path = filepath.Join(dataDir, FileName)
	}
	return LoadFromFile(path)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML over the defaults. Unknown keys are errors.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "json", "yaml":
	default:
		return fmt.Errorf("format: unsupported %q (want json or yaml)", c.Format)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("data_dir: must not be empty")
	}
	if c.MinHeight <= 0 {
		return fmt.Errorf("min_height: must be positive, got %v", c.MinHeight)
	}
	if c.MinAspect <= 0 || c.MaxAspect < c.MinAspect {
		return fmt.Errorf("aspect band [%v, %v] is invalid", c.MinAspect, c.MaxAspect)
	}
	if c.DragMargin < 0 {
		return fmt.Errorf("drag_margin: must not be negative, got %v", c.DragMargin)
	}
	for i, s := range c.Screens {
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("screens[%d]: size must be positive", i)
		}
	}
	if _, err := hotkey.NewBindings(c.Hotkeys); err != nil {
		return fmt.Errorf("hotkeys: %w", err)
	}
	return nil
}

// Layout converts the geometry settings for the widget package.
func (c *Config) Layout() widget.Layout {
	l := widget.DefaultLayout()
	l.MinHeight = c.MinHeight
	l.MinAspect = c.MinAspect
	l.MaxAspect = c.MaxAspect
	l.DragMargin = c.DragMargin
	if c.ResizeDebounce.Duration > 0 {
		l.ResizeDebounce = c.ResizeDebounce.Duration
	}
	return l
}

// WorkingAreas returns the configured screens, or nil to use the default.
func (c *Config) WorkingAreas() widget.Screens {
	if len(c.Screens) == 0 {
		return nil
	}
	out := make(widget.Screens, len(c.Screens))
	for i, s := range c.Screens {
		out[i] = widget.Rect{X: s.X, Y: s.Y, W: s.Width, H: s.Height}
	}
	return out
}

// Bindings returns the configured chords, or the defaults when none are set.
func (c *Config) Bindings() (hotkey.Bindings, error) {
	if len(c.Hotkeys) == 0 {
		return hotkey.DefaultBindings(), nil
	}
	return hotkey.NewBindings(c.Hotkeys)
}

// ResolvedThemesFile returns ThemesFile, relative paths taken from DataDir.
func (c *Config) ResolvedThemesFile() string {
	if c.ThemesFile == "" || filepath.IsAbs(c.ThemesFile) {
		return c.ThemesFile
	}
	return filepath.Join(c.DataDir, c.ThemesFile)
}

// ParseLevel maps a log level name to slog.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
