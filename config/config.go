// Package config loads springgraph settings from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/TFMV/springgraph/physics"
)

// Config holds every tunable of the layout and its hosts.
type Config struct {
	Layout   LayoutConfig   `toml:"layout"`
	Viewport ViewportConfig `toml:"viewport"`
	Server   ServerConfig   `toml:"server"`
	Terminal TerminalConfig `toml:"terminal"`
	Window   WindowConfig   `toml:"window"`
	Palette  string         `toml:"palette"` // "default" or "dark"
}

// LayoutConfig holds the simulation constants.
type LayoutConfig struct {
	Stiffness float64 `toml:"stiffness"`
	Repulsion float64 `toml:"repulsion"`
	Damping   float64 `toml:"damping"`
	MinEnergy float64 `toml:"min_energy"`
	MaxSpeed  float64 `toml:"max_speed"` // 0 means unlimited
	TimeStep  float64 `toml:"timestep"`
	Seed      int64   `toml:"seed"`
}

// ViewportConfig controls easing and picking.
type ViewportConfig struct {
	Chase      float64 `toml:"chase"`
	HitRadius  float64 `toml:"hit_radius"` // pixels; 0 means unlimited
	FitSeconds float64 `toml:"fit_seconds"`
}

// ServerConfig controls the HTTP host.
type ServerConfig struct {
	Addr   string  `toml:"addr"`
	FPS    int     `toml:"fps"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// TerminalConfig controls the terminal host.
type TerminalConfig struct {
	FPS       int    `toml:"fps"`
	NodeGlyph string `toml:"node_glyph"` // empty cycles through built-in glyphs
}

// WindowConfig controls the desktop window host.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Default returns the default configuration.
func Default() *Config {
	p := physics.DefaultParams()
	return &Config{
		Layout: LayoutConfig{
			Stiffness: p.Stiffness,
			Repulsion: p.Repulsion,
			Damping:   p.Damping,
			MinEnergy: p.MinEnergy,
			TimeStep:  0.03,
			Seed:      p.Seed,
		},
		Viewport: ViewportConfig{Chase: 0.1, FitSeconds: 0.5},
		Server:   ServerConfig{Addr: ":8080", FPS: 30, Width: 800, Height: 600},
		Terminal: TerminalConfig{FPS: 30},
		Window:   WindowConfig{Width: 1024, Height: 768, Title: "springgraph"},
		Palette:  "default",
	}
}

// Dir returns the springgraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "springgraph")
}

// DefaultPath returns the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load overlays the TOML file at path on the defaults. An empty path reads
// DefaultPath if it exists and returns the defaults otherwise; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Layout.Damping <= 0 || c.Layout.Damping > 1:
		return fmt.Errorf("layout.damping must be in (0, 1], got %v", c.Layout.Damping)
	case c.Layout.TimeStep <= 0:
		return fmt.Errorf("layout.timestep must be positive, got %v", c.Layout.TimeStep)
	case c.Layout.MinEnergy < 0:
		return fmt.Errorf("layout.min_energy must not be negative, got %v", c.Layout.MinEnergy)
	case c.Layout.MaxSpeed < 0:
		return fmt.Errorf("layout.max_speed must not be negative, got %v", c.Layout.MaxSpeed)
	case c.Viewport.Chase <= 0 || c.Viewport.Chase > 1:
		return fmt.Errorf("viewport.chase must be in (0, 1], got %v", c.Viewport.Chase)
	case c.Viewport.HitRadius < 0:
		return fmt.Errorf("viewport.hit_radius must not be negative, got %v", c.Viewport.HitRadius)
	case len([]rune(c.Terminal.NodeGlyph)) > 1:
		return fmt.Errorf("terminal.node_glyph must be a single character, got %q", c.Terminal.NodeGlyph)
	}
	return nil
}

// Params returns the simulation constants.
func (c *Config) Params() physics.Params {
	return physics.Params{
		Stiffness: c.Layout.Stiffness,
		Repulsion: c.Layout.Repulsion,
		Damping:   c.Layout.Damping,
		MinEnergy: c.Layout.MinEnergy,
		MaxSpeed:  c.Layout.MaxSpeed,
		Seed:      c.Layout.Seed,
	}
}

// Glyph returns the terminal node glyph, or 0 to cycle.
func (c *Config) Glyph() rune {
	for _, r := range c.Terminal.NodeGlyph {
		return r
	}
	return 0
}
