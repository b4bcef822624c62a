package workflow

import (
	"fmt"
	"sort"
)

// Link is one resolved connection between two existing nodes.
type Link struct {
	From   string // source node id
	To     string // target node id
	Output int    // source output port
	Input  int    // target input index
	Slot   int    // position inside the output's fan-out list
}

// Key is a stable identity for the link.
func (l Link) Key() string {
	return fmt.Sprintf("%s-%s-%d-%d", l.From, l.To, l.Output, l.Slot)
}

// Graph is the canonical in-memory form: node-id keyed adjacency with all
// dangling references already removed.
type Graph struct {
	Nodes   []Node
	Links   []Link
	Out     map[string][]Link
	In      map[string][]Link
	Dropped int

	byID   map[string]int
	byName map[string]int
}

// BuildGraph resolves connection names to node ids. References to missing
// nodes are skipped and counted in Dropped. Links come out ordered by source
// name, then output port, then fan-out slot.
func BuildGraph(w Workflow) *Graph {
	g := &Graph{
		Nodes:  w.Nodes,
		Out:    make(map[string][]Link),
		In:     make(map[string][]Link),
		byID:   make(map[string]int, len(w.Nodes)),
		byName: make(map[string]int, len(w.Nodes)),
	}
	for i, n := range w.Nodes {
		if _, dup := g.byID[n.ID]; !dup {
			g.byID[n.ID] = i
		}
		if _, dup := g.byName[n.Name]; !dup {
			g.byName[n.Name] = i
		}
	}

	sources := make([]string, 0, len(w.Connections))
	for name := range w.Connections {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	for _, srcName := range sources {
		outs := w.Connections[srcName]
		si, ok := g.byName[srcName]
		if !ok {
			for _, port := range outs.Main {
				g.Dropped += len(port)
			}
			continue
		}
		for portIdx, port := range outs.Main {
			for slot, t := range port {
				ti, ok := g.byName[t.Node]
				if !ok {
					g.Dropped++
					continue
				}
				l := Link{
					From:   w.Nodes[si].ID,
					To:     w.Nodes[ti].ID,
					Output: portIdx,
					Input:  t.Index,
					Slot:   slot,
				}
				g.Links = append(g.Links, l)
				g.Out[l.From] = append(g.Out[l.From], l)
				g.In[l.To] = append(g.In[l.To], l)
			}
		}
	}
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Named returns the node with the given name.
func (g *Graph) Named(name string) (Node, bool) {
	i, ok := g.byName[name]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Roots returns ids of nodes with no incoming links, in node order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, n := range g.Nodes {
		if len(g.In[n.ID]) == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// ─── Flat edge adapter ───

// FromEdges converts an id-keyed edge list into Connections. Edges whose
// endpoints are missing are skipped. Each source gets a single output port,
// in edge order.
func FromEdges(nodes []Node, edges []Edge) Connections {
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, dup := names[n.ID]; !dup {
			names[n.ID] = n.Name
		}
	}
	conns := Connections{}
	for _, e := range edges {
		src, ok := names[e.Source]
		if !ok {
			continue
		}
		dst, ok := names[e.Target]
		if !ok {
			continue
		}
		outs := conns[src]
		if len(outs.Main) == 0 {
			outs.Main = [][]Target{{}}
		}
		outs.Main[0] = append(outs.Main[0], Target{Node: dst, Type: PortMain, Index: 0})
		conns[src] = outs
	}
	return conns
}

// Edges flattens the workflow's resolved links into an id-keyed edge list.
func (w Workflow) Edges() []Edge {
	g := BuildGraph(w)
	edges := make([]Edge, 0, len(g.Links))
	for _, l := range g.Links {
		edges = append(edges, Edge{ID: l.Key(), Source: l.From, Target: l.To})
	}
	return edges
}
