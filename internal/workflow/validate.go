package workflow

import (
	"fmt"
	"sort"
)

// IssueKind classifies a non-fatal problem found by Validate.
type IssueKind string

const (
	IssueDuplicateName   IssueKind = "duplicate-name"
	IssueDuplicateID     IssueKind = "duplicate-id"
	IssueDanglingSource  IssueKind = "dangling-source"
	IssueDanglingTarget  IssueKind = "dangling-target"
	IssueMissingPosition IssueKind = "missing-position"
	IssueNoNodes         IssueKind = "no-nodes"
)

// Issue is one validation finding.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Node   string    `json:"node,omitempty"`
	Detail string    `json:"detail"`
}

// Report collects everything Validate found. None of it prevents rendering:
// the canvas drops what it cannot draw.
type Report struct {
	Nodes   int     `json:"nodes"`
	Links   int     `json:"links"`
	Dropped int     `json:"dropped"`
	Issues  []Issue `json:"issues"`
}

// OK reports whether no issues were found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Validate inspects a workflow for problems the canvas will silently work
// around.
func Validate(w Workflow) Report {
	g := BuildGraph(w)
	rep := Report{Nodes: len(w.Nodes), Links: len(g.Links), Dropped: g.Dropped}

	if len(w.Nodes) == 0 {
		rep.Issues = append(rep.Issues, Issue{Kind: IssueNoNodes, Detail: "workflow has no nodes"})
	}

	names := make(map[string]int)
	ids := make(map[string]int)
	for _, n := range w.Nodes {
		names[n.Name]++
		ids[n.ID]++
		if !n.Position.Valid() {
			rep.Issues = append(rep.Issues, Issue{
				Kind: IssueMissingPosition, Node: n.Name,
				Detail: "node has no usable position",
			})
		}
	}
	for _, name := range sortedKeys(names) {
		if names[name] > 1 {
			rep.Issues = append(rep.Issues, Issue{
				Kind: IssueDuplicateName, Node: name,
				Detail: fmt.Sprintf("%d nodes share this name; connections resolve to the first", names[name]),
			})
		}
	}
	for _, id := range sortedKeys(ids) {
		if ids[id] > 1 {
			rep.Issues = append(rep.Issues, Issue{
				Kind: IssueDuplicateID, Node: id,
				Detail: fmt.Sprintf("%d nodes share this id", ids[id]),
			})
		}
	}

	for _, src := range sortedKeys(w.Connections) {
		if _, ok := g.Named(src); !ok {
			rep.Issues = append(rep.Issues, Issue{
				Kind: IssueDanglingSource, Node: src,
				Detail: "connection source does not exist",
			})
			continue
		}
		for _, port := range w.Connections[src].Main {
			for _, t := range port {
				if _, ok := g.Named(t.Node); !ok {
					rep.Issues = append(rep.Issues, Issue{
						Kind: IssueDanglingTarget, Node: src,
						Detail: fmt.Sprintf("target %q does not exist", t.Node),
					})
				}
			}
		}
	}
	return rep
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
