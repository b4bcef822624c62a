// Package scene turns a workflow into positioned node boxes and routed
// edges in model space. It knows nothing about pan or zoom.
package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/nodestyle"
	"github.com/msalah0e/flowcanvas/internal/workflow"
)

// Status says whether the scene can be drawn or needs a placeholder.
type Status int

const (
	StatusReady Status = iota
	// StatusEmpty: the workflow has no nodes yet (loading placeholder).
	StatusEmpty
	// StatusInvalid: no node resolved to a usable position.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusInvalid:
		return "invalid"
	}
	return "ready"
}

// Placeholder messages.
const (
	MessageEmpty   = "Loading workflow..."
	MessageInvalid = "Could not resolve node positions"
)

// DefaultEdgeLabel is used for every edge not sourced from a webhook.
const DefaultEdgeLabel = "main"

// Parameter preview limits inside node boxes.
const (
	MaxPreviewParams = 3
	MaxPreviewChars  = 30
	ArrowSize        = 10.0
)

// Options tune scene construction.
type Options struct {
	Router geometry.Router
	// HideLabels drops edge labels.
	HideLabels bool
}

// Param is one previewed node parameter.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NodeBox is a node placed in model space.
type NodeBox struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Type       string               `json:"type"`
	Descriptor nodestyle.Descriptor `json:"descriptor"`
	Box        geometry.Rect        `json:"box"`
	HasInput   bool                 `json:"hasInput"`
	Input      geometry.Point       `json:"input"`
	Output     geometry.Point       `json:"output"`
	Params     []Param              `json:"params,omitempty"`
	MoreParams int                  `json:"moreParams,omitempty"`
}

// EdgePath is a routed connection.
type EdgePath struct {
	ID      string           `json:"id"`
	Source  string           `json:"source"`
	Target  string           `json:"target"`
	Path    geometry.Path    `json:"-"`
	D       string           `json:"d"`
	Arrow   geometry.Polygon `json:"arrow"`
	Label   string           `json:"label,omitempty"`
	LabelAt geometry.Point   `json:"labelAt"`
}

// Scene is everything a renderer draws for one workflow.
type Scene struct {
	WorkflowID  string        `json:"workflowId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Nodes       []NodeBox     `json:"nodes"`
	Edges       []EdgePath    `json:"edges"`
	Bounds      geometry.Rect `json:"bounds"`
	Dropped     int           `json:"dropped"`
}

// Build lays out a workflow. Nodes keep their input order; edges follow the
// canonical graph order. While at least one node has a position, nodes
// without one sit at the origin and keep their edges. Connections touching
// missing nodes are dropped.
func Build(w workflow.Workflow, opts Options) Scene {
	router := opts.Router
	if router == nil {
		router = geometry.Curved{}
	}
	sc := Scene{WorkflowID: w.ID, Name: w.Name, Description: w.Description}

	if len(w.Nodes) == 0 {
		sc.Status = StatusEmpty
		sc.Message = MessageEmpty
		return sc
	}

	if !anyPlaced(w.Nodes) {
		sc.Status = StatusInvalid
		sc.Message = MessageInvalid
		return sc
	}

	placed := make(map[string]int, len(w.Nodes))
	for _, n := range w.Nodes {
		if _, dup := placed[n.ID]; dup {
			continue
		}
		if !n.Position.Valid() {
			n.Position = &workflow.Position{}
		}
		box := buildNode(n)
		placed[n.ID] = len(sc.Nodes)
		sc.Nodes = append(sc.Nodes, box)
		sc.Bounds = sc.Bounds.Union(box.Box)
	}

	g := workflow.BuildGraph(w)
	sc.Dropped = g.Dropped
	for _, l := range g.Links {
		si, okS := placed[l.From]
		ti, okT := placed[l.To]
		if !okS || !okT {
			sc.Dropped++
			continue
		}
		src, dst := sc.Nodes[si], sc.Nodes[ti]
		start, end := geometry.EdgeAnchors(src.Box, dst.Box)
		path := router.Route(start, end)
		e := EdgePath{
			ID:      l.Key(),
			Source:  l.From,
			Target:  l.To,
			Path:    path,
			D:       path.D(),
			Arrow:   geometry.ArrowHead(end, path.EndAngle(), ArrowSize),
			LabelAt: path.Midpoint(),
		}
		if !opts.HideLabels {
			srcNode, _ := g.Node(l.From)
			e.Label = EdgeLabel(srcNode)
		}
		sc.Edges = append(sc.Edges, e)
	}
	return sc
}

func anyPlaced(nodes []workflow.Node) bool {
	for _, n := range nodes {
		if n.Position.Valid() {
			return true
		}
	}
	return false
}

func buildNode(n workflow.Node) NodeBox {
	d := nodestyle.Describe(n.Type)
	box := nodestyle.Box(d, geometry.Point{X: n.Position.X, Y: n.Position.Y})
	in, hasIn, out := nodestyle.Connectors(d, box)
	nb := NodeBox{
		ID:         n.ID,
		Name:       n.Name,
		Type:       n.Type,
		Descriptor: d,
		Box:        box,
		HasInput:   hasIn,
		Input:      in,
		Output:     out,
	}
	nb.Params, nb.MoreParams = previewParams(n.Parameters)
	return nb
}

func previewParams(params map[string]any) ([]Param, int) {
	if len(params) == 0 {
		return nil, 0
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Param
	for _, k := range keys {
		if len(out) == MaxPreviewParams {
			break
		}
		out = append(out, Param{Key: k, Value: truncate(fmt.Sprint(params[k]), MaxPreviewChars)})
	}
	return out, len(keys) - len(out)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// EdgeLabel is the label shown on edges leaving src: the HTTP method for
// webhook nodes, "main" otherwise.
func EdgeLabel(src workflow.Node) string {
	if nodestyle.Classify(src.Type) != nodestyle.Webhook {
		return DefaultEdgeLabel
	}
	for _, key := range []string{"httpMethod", "method"} {
		if v, ok := src.Parameters[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.ToUpper(strings.TrimSpace(v))
		}
	}
	return "GET"
}

// Layer is one draw pass, in paint order.
type Layer int

const (
	LayerEdges Layer = iota
	LayerNodes
)

// Layers lists draw passes bottom to top: edges beneath nodes so connectors
// terminate at node borders.
func (Scene) Layers() []Layer { return []Layer{LayerEdges, LayerNodes} }

// Node returns the box with the given id.
func (sc Scene) Node(id string) (NodeBox, bool) {
	for _, n := range sc.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeBox{}, false
}

// HitTest returns the topmost node containing the model-space point p.
func (sc Scene) HitTest(p geometry.Point) (NodeBox, bool) {
	for i := len(sc.Nodes) - 1; i >= 0; i-- {
		if sc.Nodes[i].Box.Contains(p) {
			return sc.Nodes[i], true
		}
	}
	return NodeBox{}, false
}
