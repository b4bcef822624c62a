// Package workflow holds the n8n-style workflow shape the canvas consumes,
// its canonical in-memory graph, and the loaders that read it from disk.
package workflow

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// PortMain is the only connection type n8n uses for data flow.
const PortMain = "main"

// Workflow is the unit the canvas renders. It is never mutated by the
// renderer; editing hosts commit modified copies.
type Workflow struct {
	ID          string      `json:"id" yaml:"id" toml:"id"`
	Name        string      `json:"name" yaml:"name" toml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Nodes       []Node      `json:"nodes" yaml:"nodes" toml:"nodes"`
	Connections Connections `json:"connections" yaml:"connections" toml:"connections"`
}

// Node is one automation step.
type Node struct {
	ID          string         `json:"id" yaml:"id" toml:"id"`
	Name        string         `json:"name" yaml:"name" toml:"name"`
	Type        string         `json:"type" yaml:"type" toml:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty" yaml:"typeVersion,omitempty" toml:"typeVersion,omitempty"`
	Position    *Position      `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
}

// Connections maps a source node name to its output ports.
type Connections map[string]NodeOutputs

// NodeOutputs lists output ports; Main[i] holds the targets fed by output i.
type NodeOutputs struct {
	Main [][]Target `json:"main" yaml:"main" toml:"main"`
}

// Target is one end of a connection: a node name and its input index.
type Target struct {
	Node  string `json:"node" yaml:"node" toml:"node"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Index int    `json:"index" yaml:"index" toml:"index"`
}

// Edge is the flat, id-keyed representation some producers emit instead of
// Connections.
type Edge struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Source string `json:"source" yaml:"source" toml:"source"`
	Target string `json:"target" yaml:"target" toml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// ─── Position ───

// Position is a model-space coordinate. It decodes from either an object
// ({"x": 1, "y": 2}) or the n8n array form ([1, 2]).
type Position struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Valid reports whether both coordinates are finite.
func (p *Position) Valid() bool {
	if p == nil {
		return false
	}
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p *Position) setPair(vals []float64) error {
	if len(vals) != 2 {
		return fmt.Errorf("position: want 2 coordinates, got %d", len(vals))
	}
	p.X, p.Y = vals[0], vals[1]
	return nil
}

// UnmarshalJSON accepts the object and array forms.
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		return p.setPair(pair)
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// UnmarshalYAML accepts the mapping and sequence forms.
func (p *Position) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("position: %w", err)
		}
		return p.setPair(pair)
	}
	var obj struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	}
	if err := value.Decode(&obj); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// ─── Helpers ───

// NodeByName returns the first node with the given name.
func (w Workflow) NodeByName(name string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// NodeByID returns the node with the given id.
func (w Workflow) NodeByID(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy of nodes and connections so edits never alias
// the caller's workflow. Parameters are shared; they are never edited.
func (w Workflow) Clone() Workflow {
	out := w
	out.Nodes = make([]Node, len(w.Nodes))
	for i, n := range w.Nodes {
		if n.Position != nil {
			pos := *n.Position
			n.Position = &pos
		}
		out.Nodes[i] = n
	}
	out.Connections = make(Connections, len(w.Connections))
	for src, outs := range w.Connections {
		main := make([][]Target, len(outs.Main))
		for i, port := range outs.Main {
			main[i] = append([]Target(nil), port...)
		}
		out.Connections[src] = NodeOutputs{Main: main}
	}
	return out
}

// Connect appends a connection from output 0 of source to input 0 of target.
// Duplicate connections are ignored. It reports whether w changed.
func (w *Workflow) Connect(sourceName, targetName string) bool {
	if w.Connections == nil {
		w.Connections = Connections{}
	}
	outs := w.Connections[sourceName]
	if len(outs.Main) == 0 {
		outs.Main = [][]Target{{}}
	}
	for _, t := range outs.Main[0] {
		if t.Node == targetName && t.Index == 0 {
			return false
		}
	}
	outs.Main[0] = append(outs.Main[0], Target{Node: targetName, Type: PortMain, Index: 0})
	w.Connections[sourceName] = outs
	return true
}
