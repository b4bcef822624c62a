package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/viewport"
)

// ProjectFile is the per-project override looked up from the working
// directory upwards.
const ProjectFile = ".flowcanvas.toml"

// Config holds flowcanvas configuration.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas"`
	Viewport ViewportConfig `toml:"viewport"`
	Render   RenderConfig   `toml:"render"`
	Serve    ServeConfig    `toml:"serve"`
	Library  LibraryConfig  `toml:"library"`
	Parallel ParallelConfig `toml:"parallel"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// CanvasConfig controls how canvases are mounted.
type CanvasConfig struct {
	Routing     string `toml:"routing"`     // "curved", "orthogonal"
	ReadOnly    bool   `toml:"read_only"`   // reject edits
	Interaction string `toml:"interaction"` // "interactive", "static"
	HideLabels  bool   `toml:"hide_labels"`
}

// ViewportConfig bounds pan and zoom. Empty mode or policy follows the
// preset that matches canvas.read_only.
type ViewportConfig struct {
	Mode             string  `toml:"mode"`       // "additive", "multiplicative"
	PanPolicy        string  `toml:"pan_policy"` // "plain", "modifier"
	MinZoom          float64 `toml:"min_zoom"`
	MaxZoom          float64 `toml:"max_zoom"`
	Step             float64 `toml:"step"`
	WheelZoomsFreely *bool   `toml:"wheel_zooms_freely"`
}

// RenderConfig sets the output surface.
type RenderConfig struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	Padding    float64 `toml:"padding"`
	Background string  `toml:"background"`
	Fit        bool    `toml:"fit"`
}

// ServeConfig controls the HTTP canvas server.
type ServeConfig struct {
	Addr       string `toml:"addr"`
	SessionTTL string `toml:"session_ttl"`
}

// LibraryConfig locates the workflow library database.
type LibraryConfig struct {
	Path string `toml:"path"` // empty means <config dir>/library.db
}

// ParallelConfig controls batch rendering.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas:   CanvasConfig{Routing: "curved", ReadOnly: true, Interaction: "interactive"},
		Render:   RenderConfig{Width: 1200, Height: 700, Padding: 40, Background: "#f8fafc", Fit: true},
		Serve:    ServeConfig{Addr: "127.0.0.1:7420", SessionTTL: "30m"},
		Parallel: ParallelConfig{Concurrency: 4},
		Log:      LogConfig{Level: "info"},
		UI:       UIConfig{Color: true},
	}
}

// ConfigDir returns the flowcanvas config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowcanvas")
}

// Path is the user config file.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config and then the nearest project file on top of
// it. Missing files leave defaults in place.
func Load() (*Config, error) {
	cfg := Default()
	if err := mergeFile(cfg, Path()); err != nil {
		return cfg, err
	}
	if p := findProjectConfig(); p != "" {
		if err := mergeFile(cfg, p); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// LoadFile reads a single config file over defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}

func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ─── Resolvers ───

// ViewportConfig resolves the [viewport] section on top of the preset for
// the canvas mode. Zero values keep the preset's.
func (c *Config) ViewportConfig() (viewport.Config, error) {
	vc := viewport.ReadOnlyPreset()
	if !c.Canvas.ReadOnly {
		vc = viewport.EditorPreset()
	}
	v := c.Viewport
	if v.Mode != "" {
		m, err := viewport.ParseZoomMode(v.Mode)
		if err != nil {
			return vc, err
		}
		vc.Mode = m
	}
	if v.PanPolicy != "" {
		p, err := viewport.ParsePanPolicy(v.PanPolicy)
		if err != nil {
			return vc, err
		}
		vc.Policy = p
	}
	if v.MinZoom != 0 {
		vc.MinZoom = v.MinZoom
	}
	if v.MaxZoom != 0 {
		vc.MaxZoom = v.MaxZoom
	}
	if v.Step != 0 {
		vc.Step = v.Step
	}
	if v.WheelZoomsFreely != nil {
		vc.WheelZoomsFreely = *v.WheelZoomsFreely
	}
	return vc, vc.Validate()
}

// Router resolves canvas.routing.
func (c *Config) Router() (geometry.Router, error) {
	return geometry.RouterFor(c.Canvas.Routing)
}

// Static reports whether canvas.interaction disables node clicks.
func (c *Config) Static() (bool, error) {
	switch c.Canvas.Interaction {
	case "", "interactive":
		return false, nil
	case "static":
		return true, nil
	}
	return false, fmt.Errorf("canvas.interaction %q: want interactive or static", c.Canvas.Interaction)
}

// SessionTTL parses serve.session_ttl. Empty means 30 minutes.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Serve.SessionTTL == "" {
		return 30 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Serve.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("serve.session_ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("serve.session_ttl must be positive")
	}
	return d, nil
}

// LibraryPath resolves library.path.
func (c *Config) LibraryPath() string {
	if c.Library.Path != "" {
		return c.Library.Path
	}
	return filepath.Join(ConfigDir(), "library.db")
}
