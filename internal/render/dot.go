package render

import (
	"fmt"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/scene"
)

// DOT returns the scene in Graphviz DOT format. Node positions are pinned
// (`pos="x,y!"`, y flipped) so `neato -n` reproduces the canvas layout.
func DOT(sc scene.Scene) string {
	var b strings.Builder
	name := sc.Name
	if name == "" {
		name = "flowcanvas"
	}
	b.WriteString(fmt.Sprintf("digraph %q {\n", name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [color=\"" + EdgeColor + "\", fontsize=10];\n\n")

	for _, n := range sc.Nodes {
		label := n.Name
		if n.Type != "" {
			label += `\n(` + shortType(n.Type) + ")"
		}
		shape := ""
		if n.Descriptor.Trigger {
			shape = ", shape=cds"
		}
		c := n.Box.LeftMid()
		b.WriteString(fmt.Sprintf("  %q [label=%s, fillcolor=%q, pos=\"%s,%s!\"%s];\n",
			n.ID, dotQuote(label), n.Descriptor.Color, geometry.Num(c.X), geometry.Num(-c.Y), shape))
	}

	if len(sc.Edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range sc.Edges {
		if e.Label != "" {
			b.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label))
		} else {
			b.WriteString(fmt.Sprintf("  %q -> %q;\n", e.Source, e.Target))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// dotQuote quotes s for DOT, leaving escapes like \n for Graphviz to read.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
