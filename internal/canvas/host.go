// Package canvas hosts one mounted workflow canvas: it owns the viewport
// controller, the current selection and the memoized scene, and turns
// platform-neutral pointer and wheel events into view, selection and edit
// changes.
//
// A Host is not safe for concurrent use. Callers serialize events.
package canvas

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/viewport"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"go.uber.org/zap"
)

var (
	// ErrReadOnly is returned by edits on a read-only host.
	ErrReadOnly = errors.New("canvas is read-only")
	// ErrUnknownNode is returned when an id names no node in the workflow.
	ErrUnknownNode = errors.New("unknown node")
)

// ClickSlop is how far, in screen pixels, a pointer may travel between down
// and up and still count as a click.
const ClickSlop = 3.0

// Interaction controls whether nodes react to clicks.
type Interaction int

const (
	// Interactive: clicking a node toggles its selection.
	Interactive Interaction = iota
	// Static: node clicks are ignored. Pan and zoom still work.
	Static
)

func (i Interaction) String() string {
	if i == Static {
		return "static"
	}
	return "interactive"
}

// Options configure a Host.
type Options struct {
	ReadOnly    bool
	Interaction Interaction
	Viewport    viewport.Config
	Router      geometry.Router
	HideLabels  bool

	// OnNodeClick fires after a click toggles selection.
	OnNodeClick func(workflow.Node)
	// OnUpdateWorkflow receives a copy of the workflow after every edit.
	OnUpdateWorkflow func(workflow.Workflow)

	Logger *zap.Logger
}

// PointerEvent is a pointer press, move or release in screen coordinates.
// Button follows DOM numbering: 0 left, 1 middle, 2 right.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
	Shift  bool    `json:"shift"`
}

func (e PointerEvent) point() geometry.Point { return geometry.Point{X: e.X, Y: e.Y} }

// WheelEvent is one wheel notch. Negative DeltaY zooms in.
type WheelEvent struct {
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
}

// Host is one mounted canvas.
type Host struct {
	opts Options
	log  *zap.Logger
	ctrl *viewport.Controller
	wf   workflow.Workflow
	memo scene.Memo

	selected string

	// Pointer gesture in progress.
	down     bool
	downAt   geometry.Point
	downNode string
	dragNode string
	dragLast geometry.Point
	moved    bool
}

// New mounts w. An invalid viewport config falls back to the preset that
// matches ReadOnly.
func New(w workflow.Workflow, opts Options) *Host {
	if opts.Viewport.Validate() != nil {
		if opts.ReadOnly {
			opts.Viewport = viewport.ReadOnlyPreset()
		} else {
			opts.Viewport = viewport.EditorPreset()
		}
	}
	if opts.Router == nil {
		opts.Router = geometry.Curved{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		opts: opts,
		log:  log,
		ctrl: viewport.NewController(opts.Viewport),
		wf:   w.Clone(),
	}
}

// ─── Accessors ───

// Workflow returns a copy of the current workflow.
func (h *Host) Workflow() workflow.Workflow { return h.wf.Clone() }

// Scene returns the current scene, rebuilding only if the workflow changed.
func (h *Host) Scene() scene.Scene {
	return h.memo.Get(h.wf, scene.Options{Router: h.opts.Router, HideLabels: h.opts.HideLabels})
}

// Viewport returns the current view.
func (h *Host) Viewport() viewport.State { return h.ctrl.State() }

// Selected returns the selected node id, or "".
func (h *Host) Selected() string { return h.selected }

// ReadOnly reports whether edits are rejected.
func (h *Host) ReadOnly() bool { return h.opts.ReadOnly }

// Options returns the host's effective options.
func (h *Host) Options() Options { return h.opts }

// ─── Workflow lifecycle ───

// SetWorkflow replaces the displayed workflow. A different workflow id
// starts from a fresh view with nothing selected; the same id keeps the view
// and drops the selection only if the selected node is gone.
func (h *Host) SetWorkflow(w workflow.Workflow) {
	if w.ID != h.wf.ID {
		h.ctrl.Reset()
		h.selected = ""
		h.cancelGesture()
		h.log.Debug("workflow switched", zap.String("from", h.wf.ID), zap.String("to", w.ID))
	} else if h.selected != "" {
		if _, ok := w.NodeByID(h.selected); !ok {
			h.selected = ""
		}
	}
	h.wf = w.Clone()
}

// ─── Pointer events ───

// PointerDown starts a gesture: a pan, a node drag on editable hosts, or a
// potential click.
func (h *Host) PointerDown(ev PointerEvent) {
	p := ev.point()
	cfg := h.ctrl.Config()
	modifier := ev.Ctrl || ev.Meta
	panTrigger := viewport.PanTrigger(cfg.Policy, ev.Button, modifier)

	// A second press ends the gesture in progress, as a leave would.
	h.PointerLeave()
	h.down = true
	h.downAt = p

	// Under ModifierDrag a ctrl/meta press always pans, even over a node.
	nodeGesture := ev.Button == 0 && !(cfg.Policy == viewport.ModifierDrag && modifier)
	if nodeGesture {
		if nb, ok := h.Scene().HitTest(h.ctrl.State().ToModel(p)); ok {
			h.downNode = nb.ID
			if !h.opts.ReadOnly {
				h.dragNode = nb.ID
				h.dragLast = p
				return
			}
		}
	}
	h.ctrl.PointerDown(p, panTrigger)
}

// PointerMove pans or drags depending on the active gesture.
func (h *Host) PointerMove(ev PointerEvent) {
	if !h.down {
		return
	}
	p := ev.point()
	if !h.moved && dist(p, h.downAt) > ClickSlop {
		h.moved = true
	}
	if h.dragNode != "" {
		if !h.moved {
			return
		}
		d := p.Sub(h.dragLast)
		h.dragLast = p
		z := h.ctrl.State().Zoom
		h.nudge(h.dragNode, d.X/z, d.Y/z)
		return
	}
	h.ctrl.PointerMove(p)
}

// PointerUp ends the gesture. A press and release within ClickSlop on a node
// is a click; a finished drag commits the edit.
func (h *Host) PointerUp(ev PointerEvent) {
	if !h.down {
		return
	}
	h.PointerMove(ev)
	h.ctrl.PointerUp()
	switch {
	case h.dragNode != "" && h.moved:
		h.commit("move")
	case h.downNode != "" && !h.moved:
		h.click(h.downNode)
	}
	h.cancelGesture()
}

// PointerLeave abandons any click and ends pans. A node drag in progress is
// committed where it stands.
func (h *Host) PointerLeave() {
	h.ctrl.PointerLeave()
	if h.dragNode != "" && h.moved {
		h.commit("move")
	}
	h.cancelGesture()
}

func (h *Host) cancelGesture() {
	h.down = false
	h.downNode = ""
	h.dragNode = ""
	h.moved = false
}

// ─── View ───

// Wheel zooms one step when the event qualifies. It reports whether the
// zoom changed.
func (h *Host) Wheel(ev WheelEvent) bool {
	return h.ctrl.Wheel(ev.DeltaY, ev.Ctrl || ev.Meta)
}

// Zoom applies toolbar zoom steps (positive zooms in).
func (h *Host) Zoom(steps int) { h.ctrl.Zoom(steps) }

// Pan shifts the view by a screen-space delta.
func (h *Host) Pan(dx, dy float64) {
	h.ctrl.SetState(viewport.ApplyPanDelta(h.ctrl.State(), dx, dy))
}

// ResetView returns to the identity view.
func (h *Host) ResetView() { h.ctrl.Reset() }

// FitView centers the workflow in a view of the given size. Placeholder
// scenes reset instead.
func (h *Host) FitView(width, height, padding float64) {
	sc := h.Scene()
	if sc.Status != scene.StatusReady {
		h.ctrl.Reset()
		return
	}
	h.ctrl.Fit(sc.Bounds, width, height, padding)
}

// Batch is a run of view input collected over one frame.
type Batch struct {
	Pans   []geometry.Point `json:"pans"`
	Wheels []WheelEvent     `json:"wheels"`
}

// ApplyBatch folds a frame's pan deltas and wheel notches into one view
// update. Wheel events that would not zoom on their own are skipped.
func (h *Host) ApplyBatch(b Batch) viewport.State {
	cfg := h.ctrl.Config()
	var q viewport.Coalescer
	for _, d := range b.Pans {
		q.Pan(d.X, d.Y)
	}
	for _, w := range b.Wheels {
		if w.DeltaY == 0 || (!cfg.WheelZoomsFreely && !w.Ctrl && !w.Meta) {
			continue
		}
		if w.DeltaY < 0 {
			q.Wheel(1)
		} else {
			q.Wheel(-1)
		}
	}
	if q.Pending() {
		h.ctrl.SetState(q.Flush(h.ctrl.State(), cfg))
	}
	return h.ctrl.State()
}

// ─── Selection ───

// Select makes id the selection. Static hosts ignore it.
func (h *Host) Select(id string) error {
	if _, ok := h.wf.NodeByID(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	if h.opts.Interaction == Static {
		return nil
	}
	h.selected = id
	return nil
}

// ClearSelection deselects.
func (h *Host) ClearSelection() { h.selected = "" }

func (h *Host) click(id string) {
	if h.opts.Interaction == Static {
		return
	}
	n, ok := h.wf.NodeByID(id)
	if !ok {
		return
	}
	if h.selected == id {
		h.selected = ""
	} else {
		h.selected = id
	}
	if h.opts.OnNodeClick != nil {
		h.opts.OnNodeClick(n)
	}
}

// ─── Edits ───

// MoveNode places a node at pos in model space.
func (h *Host) MoveNode(id string, pos workflow.Position) error {
	if h.opts.ReadOnly {
		return ErrReadOnly
	}
	i := h.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	p := pos
	h.wf.Nodes[i].Position = &p
	h.commit("move")
	return nil
}

// Connect links output 0 of source to input 0 of target, both by id.
// Existing links are left alone and not re-committed.
func (h *Host) Connect(sourceID, targetID string) error {
	if h.opts.ReadOnly {
		return ErrReadOnly
	}
	src, ok := h.wf.NodeByID(sourceID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, sourceID)
	}
	dst, ok := h.wf.NodeByID(targetID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, targetID)
	}
	if h.wf.Connect(src.Name, dst.Name) {
		h.commit("connect")
	}
	return nil
}

func (h *Host) nudge(id string, dx, dy float64) {
	i := h.indexOf(id)
	if i < 0 || h.wf.Nodes[i].Position == nil {
		return
	}
	p := *h.wf.Nodes[i].Position
	p.X += dx
	p.Y += dy
	h.wf.Nodes[i].Position = &p
}

func (h *Host) indexOf(id string) int {
	for i, n := range h.wf.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (h *Host) commit(op string) {
	h.log.Debug("workflow edited", zap.String("workflow", h.wf.ID), zap.String("op", op))
	if h.opts.OnUpdateWorkflow != nil {
		h.opts.OnUpdateWorkflow(h.wf.Clone())
	}
}

// ─── Output ───

// RenderOptions fills in the host-owned fields of opts: selection, viewport
// bounds and interactivity.
func (h *Host) RenderOptions(opts render.Options) render.Options {
	opts.Selected = h.selected
	opts.Viewport = h.ctrl.Config()
	opts.Static = h.opts.Interaction == Static
	opts.Editable = !h.opts.ReadOnly
	return opts
}

// Render draws the current scene under the current view.
func (h *Host) Render(w io.Writer, f render.Format, opts render.Options) error {
	return render.Write(w, f, h.Scene(), h.ctrl.State(), h.RenderOptions(opts))
}

// Snapshot is the host state exposed over HTTP.
type Snapshot struct {
	WorkflowID  string         `json:"workflowId"`
	Status      string         `json:"status"`
	Viewport    viewport.State `json:"viewport"`
	Selected    string         `json:"selected,omitempty"`
	Mode        string         `json:"mode"`
	ReadOnly    bool           `json:"readOnly"`
	Interaction string         `json:"interaction"`
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
}

// Snapshot reports the host's current state.
func (h *Host) Snapshot() Snapshot {
	sc := h.Scene()
	return Snapshot{
		WorkflowID:  h.wf.ID,
		Status:      sc.Status.String(),
		Viewport:    h.ctrl.State(),
		Selected:    h.selected,
		Mode:        h.ctrl.Mode().String(),
		ReadOnly:    h.opts.ReadOnly,
		Interaction: h.opts.Interaction.String(),
		Nodes:       len(sc.Nodes),
		Edges:       len(sc.Edges),
	}
}

func dist(a, b geometry.Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }
