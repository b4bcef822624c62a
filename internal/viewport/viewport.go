// Package viewport owns pan and zoom for a canvas. State transitions are
// plain functions so any event system can drive them.
package viewport

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/geometry"
)

// ZoomMode selects how one wheel step changes the zoom factor.
type ZoomMode int

const (
	// Additive adds or subtracts Step per wheel step.
	Additive ZoomMode = iota
	// Multiplicative multiplies or divides by (1+Step) per wheel step.
	Multiplicative
)

func (m ZoomMode) String() string {
	if m == Multiplicative {
		return "multiplicative"
	}
	return "additive"
}

// PanPolicy selects which pointer gesture starts a pan.
type PanPolicy int

const (
	// PlainDrag pans on a plain left-button drag.
	PlainDrag PanPolicy = iota
	// ModifierDrag pans on middle-button or ctrl+left drag, leaving plain
	// left click for node selection.
	ModifierDrag
)

func (p PanPolicy) String() string {
	if p == ModifierDrag {
		return "modifier"
	}
	return "plain"
}

// ErrBadConfig is wrapped by configuration parsing errors.
var ErrBadConfig = errors.New("invalid viewport config")

// ParseZoomMode reads a mode name from configuration.
func ParseZoomMode(s string) (ZoomMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "additive", "add", "linear":
		return Additive, nil
	case "multiplicative", "mul", "geometric":
		return Multiplicative, nil
	}
	return Additive, fmt.Errorf("%w: zoom mode %q", ErrBadConfig, s)
}

// ParsePanPolicy reads a pan policy name from configuration.
func ParsePanPolicy(s string) (PanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "drag":
		return PlainDrag, nil
	case "modifier", "ctrl", "middle":
		return ModifierDrag, nil
	}
	return PlainDrag, fmt.Errorf("%w: pan policy %q", ErrBadConfig, s)
}

// Config bounds and tunes a controller.
type Config struct {
	MinZoom float64
	MaxZoom float64
	Step    float64
	Mode    ZoomMode
	Policy  PanPolicy
	// WheelZoomsFreely makes every wheel event zoom; otherwise ctrl/meta must
	// be held.
	WheelZoomsFreely bool
}

// ReadOnlyPreset is the configuration of the read-only preview canvas.
func ReadOnlyPreset() Config {
	return Config{MinZoom: 0.5, MaxZoom: 2, Step: 0.2, Mode: Additive, Policy: PlainDrag, WheelZoomsFreely: true}
}

// EditorPreset is the configuration of the editable canvas.
func EditorPreset() Config {
	return Config{MinZoom: 0.3, MaxZoom: 3, Step: 0.2, Mode: Multiplicative, Policy: ModifierDrag}
}

// Validate checks the zoom range and step.
func (c Config) Validate() error {
	if c.MinZoom <= 0 || c.MaxZoom <= 0 {
		return fmt.Errorf("%w: zoom bounds must be positive", ErrBadConfig)
	}
	if c.MinZoom > 1 || c.MaxZoom < 1 {
		return fmt.Errorf("%w: zoom range [%g, %g] must include 1", ErrBadConfig, c.MinZoom, c.MaxZoom)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: zoom step must be positive", ErrBadConfig)
	}
	return nil
}

// ─── State and reducers ───

// State is the current view: content is translated by Pan, then scaled by
// Zoom around the model origin.
type State struct {
	Pan  geometry.Point `json:"pan"`
	Zoom float64        `json:"zoom"`
}

// Identity is the initial view.
func Identity() State { return State{Zoom: 1} }

// Reset returns the identity view regardless of s.
func Reset() State { return Identity() }

// ApplyPanDelta adds a screen-space delta to the pan offset.
func ApplyPanDelta(s State, dx, dy float64) State {
	s.Pan.X += dx
	s.Pan.Y += dy
	return s
}

// ApplyZoomDelta applies steps wheel steps (positive zooms in) one at a
// time, clamping after each. It stops early once a step no longer changes
// the zoom, so the cost is bounded by the zoom range, not by steps.
func ApplyZoomDelta(s State, steps int, cfg Config) State {
	dir := 1
	if steps < 0 {
		dir = -1
	}
	for ; steps != 0; steps -= dir {
		next := clampZoom(stepZoom(s.Zoom, dir, cfg), cfg)
		if next == s.Zoom {
			break
		}
		s.Zoom = next
	}
	return s
}

func stepZoom(z float64, dir int, cfg Config) float64 {
	if cfg.Mode == Multiplicative {
		if dir > 0 {
			return z * (1 + cfg.Step)
		}
		return z / (1 + cfg.Step)
	}
	return z + float64(dir)*cfg.Step
}

func clampZoom(z float64, cfg Config) float64 {
	z = math.Round(z*1e6) / 1e6
	if z < cfg.MinZoom {
		return cfg.MinZoom
	}
	if z > cfg.MaxZoom {
		return cfg.MaxZoom
	}
	return z
}

// ToScreen maps a model point to screen space.
func (s State) ToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*s.Zoom + s.Pan.X, Y: p.Y*s.Zoom + s.Pan.Y}
}

// ToModel maps a screen point back to model space.
func (s State) ToModel(p geometry.Point) geometry.Point {
	z := s.Zoom
	if z == 0 {
		z = 1
	}
	return geometry.Point{X: (p.X - s.Pan.X) / z, Y: (p.Y - s.Pan.Y) / z}
}

// Transform is the SVG transform attribute for s.
func (s State) Transform() string {
	return "translate(" + geometry.Num(s.Pan.X) + ", " + geometry.Num(s.Pan.Y) + ") scale(" + geometry.Num(s.Zoom) + ")"
}

// CSSTransform is the CSS equivalent of Transform, anchored at the top-left.
func (s State) CSSTransform() string {
	return "transform: translate(" + geometry.Num(s.Pan.X) + "px, " + geometry.Num(s.Pan.Y) +
		"px) scale(" + geometry.Num(s.Zoom) + "); transform-origin: 0 0;"
}

// Fit returns a state that shows bounds centered inside a view of the given
// size, leaving padding on each side. Zoom is clamped to cfg.
func Fit(bounds geometry.Rect, viewW, viewH, padding float64, cfg Config) State {
	if bounds.W <= 0 || bounds.H <= 0 || viewW <= 0 || viewH <= 0 {
		return Identity()
	}
	availW := math.Max(viewW-2*padding, 1)
	availH := math.Max(viewH-2*padding, 1)
	z := clampZoom(math.Min(availW/bounds.W, availH/bounds.H), cfg)
	return State{
		Zoom: z,
		Pan: geometry.Point{
			X: (viewW-bounds.W*z)/2 - bounds.X*z,
			Y: (viewH-bounds.H*z)/2 - bounds.Y*z,
		},
	}
}
