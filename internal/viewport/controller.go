package viewport

import "github.com/msalah0e/flowcanvas/internal/geometry"

// Mode is the controller's interaction state.
type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	if m == Panning {
		return "panning"
	}
	return "idle"
}

// Controller is the pan/zoom state machine for one mounted canvas. It is
// not safe for concurrent use; the owner serializes events.
type Controller struct {
	cfg   Config
	state State
	mode  Mode
	last  geometry.Point
}

// NewController starts at the identity view in Idle.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, state: Identity()}
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config { return c.cfg }

// State returns the current view.
func (c *Controller) State() State { return c.state }

// Mode returns Idle or Panning.
func (c *Controller) Mode() Mode { return c.mode }

// SetState replaces the view, clamping zoom.
func (c *Controller) SetState(s State) {
	s.Zoom = clampZoom(s.Zoom, c.cfg)
	c.state = s
}

// PointerDown enters Panning when trigger is set. The caller decides what
// counts as a pan trigger under the configured PanPolicy.
func (c *Controller) PointerDown(p geometry.Point, trigger bool) {
	if !trigger {
		return
	}
	c.mode = Panning
	c.last = p
}

// PointerMove accumulates the delta since the previous pointer position
// while Panning and returns it. Idle moves are ignored.
func (c *Controller) PointerMove(p geometry.Point) geometry.Point {
	if c.mode != Panning {
		return geometry.Point{}
	}
	d := p.Sub(c.last)
	c.last = p
	c.state = ApplyPanDelta(c.state, d.X, d.Y)
	return d
}

// PointerUp ends a pan.
func (c *Controller) PointerUp() { c.mode = Idle }

// PointerLeave ends a pan when the pointer leaves the surface.
func (c *Controller) PointerLeave() { c.mode = Idle }

// Wheel zooms one step when allowed. Negative deltaY zooms in. It reports
// whether the zoom changed.
func (c *Controller) Wheel(deltaY float64, zoomModifier bool) bool {
	if deltaY == 0 || (!zoomModifier && !c.cfg.WheelZoomsFreely) {
		return false
	}
	before := c.state.Zoom
	steps := 1
	if deltaY > 0 {
		steps = -1
	}
	c.state = ApplyZoomDelta(c.state, steps, c.cfg)
	return c.state.Zoom != before
}

// Zoom applies steps directly, as toolbar buttons do.
func (c *Controller) Zoom(steps int) {
	c.state = ApplyZoomDelta(c.state, steps, c.cfg)
}

// Reset returns to the identity view. An in-progress pan continues from
// the pointer's current position.
func (c *Controller) Reset() { c.state = Reset() }

// Fit centers bounds in a view of the given size.
func (c *Controller) Fit(bounds geometry.Rect, viewW, viewH, padding float64) {
	c.state = Fit(bounds, viewW, viewH, padding, c.cfg)
}

// PanTrigger reports whether a pointer-down starts a pan under policy.
// button follows DOM numbering: 0 left, 1 middle, 2 right.
func PanTrigger(policy PanPolicy, button int, ctrl bool) bool {
	switch policy {
	case ModifierDrag:
		return button == 1 || (button == 0 && ctrl)
	default:
		return button == 0 || button == 1
	}
}
