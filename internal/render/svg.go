package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/nodestyle"
	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/viewport"
)

// SVG writes sc as a standalone SVG document. All content sits inside one
// transformed group so pan and zoom never touch model coordinates.
func SVG(w io.Writer, sc scene.Scene, vp viewport.State, opts Options) error {
	var buf bytes.Buffer
	writeSVG(&buf, sc, vp, opts.withDefaults())
	_, err := w.Write(buf.Bytes())
	return err
}

// SVGString is SVG into a string.
func SVGString(sc scene.Scene, vp viewport.State, opts Options) string {
	var buf bytes.Buffer
	writeSVG(&buf, sc, vp, opts.withDefaults())
	return buf.String()
}

func writeSVG(b *bytes.Buffer, sc scene.Scene, vp viewport.State, o Options) {
	n := geometry.Num
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" class="flowcanvas" width="%s" height="%s" viewBox="0 0 %s %s" data-workflow="%s">`+"\n",
		n(o.Width), n(o.Height), n(o.Width), n(o.Height), esc(sc.WorkflowID))
	fmt.Fprintf(b, `<rect class="background" width="100%%" height="100%%" fill="%s"/>`+"\n", esc(o.Background))

	if sc.Status != scene.StatusReady {
		fmt.Fprintf(b, `<text class="placeholder placeholder-%s" x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="16" fill="%s">%s</text>`+"\n",
			sc.Status, n(o.Width/2), n(o.Height/2), MutedColor, esc(sc.Message))
		b.WriteString("</svg>\n")
		return
	}

	fmt.Fprintf(b, `<g class="viewport" transform="%s">`+"\n", vp.Transform())
	for _, layer := range sc.Layers() {
		switch layer {
		case scene.LayerEdges:
			b.WriteString(`<g class="edges">` + "\n")
			for _, e := range sc.Edges {
				writeEdge(b, e)
			}
			b.WriteString("</g>\n")
		case scene.LayerNodes:
			b.WriteString(`<g class="nodes">` + "\n")
			for _, nb := range sc.Nodes {
				writeNode(b, nb, nb.ID == o.Selected)
			}
			b.WriteString("</g>\n")
		}
	}
	b.WriteString("</g>\n</svg>\n")
}

func writeEdge(b *bytes.Buffer, e scene.EdgePath) {
	n := geometry.Num
	fmt.Fprintf(b, `<g class="edge" data-id="%s" data-source="%s" data-target="%s">`, esc(e.ID), esc(e.Source), esc(e.Target))
	fmt.Fprintf(b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, e.D, EdgeColor)
	fmt.Fprintf(b, `<polygon points="%s" fill="%s"/>`, e.Arrow.Points(), EdgeColor)
	if e.Label != "" {
		fmt.Fprintf(b, `<text class="edge-label" x="%s" y="%s" text-anchor="middle" font-family="sans-serif" font-size="11" fill="%s">%s</text>`,
			n(e.LabelAt.X), n(e.LabelAt.Y-6), LabelColor, esc(e.Label))
	}
	b.WriteString("</g>\n")
}

func writeNode(b *bytes.Buffer, nb scene.NodeBox, selected bool) {
	n := geometry.Num
	d := nb.Descriptor
	stroke, width := d.Color, "2"
	class := "node"
	if selected {
		stroke, width = SelectedColor, "3"
		class += " selected"
	}
	fmt.Fprintf(b, `<g class="%s" data-id="%s" data-category="%s">`, class, esc(nb.ID), d.Category)
	fmt.Fprintf(b, `<path d="%s" fill="%s" stroke="%s" stroke-width="%s"/>`, nodestyle.Outline(d, nb.Box), NodeFill, stroke, width)

	ic := iconCenter(nb)
	fmt.Fprintf(b, `<circle class="icon" cx="%s" cy="%s" r="12" fill="%s"/>`, n(ic.X), n(ic.Y), d.Color)
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-size="12" fill="#ffffff">%s</text>`,
		n(ic.X), n(ic.Y), esc(d.Icon))

	lx := nodeLabelX(nb)
	fmt.Fprintf(b, `<text class="node-name" x="%s" y="%s" font-family="sans-serif" font-size="14" font-weight="600" fill="%s">%s</text>`,
		n(lx), n(nb.Box.Y+34), TextColor, esc(nb.Name))
	fmt.Fprintf(b, `<text class="node-type" x="%s" y="%s" font-family="sans-serif" font-size="11" fill="%s">%s</text>`,
		n(lx), n(nb.Box.Y+54), MutedColor, esc(shortType(nb.Type)))

	if nb.HasInput {
		fmt.Fprintf(b, `<circle class="port port-in" cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2"/>`,
			n(nb.Input.X), n(nb.Input.Y), n(nodestyle.ConnectorR), d.Color)
	}
	fmt.Fprintf(b, `<circle class="port port-out" cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2"/>`,
		n(nb.Output.X), n(nb.Output.Y), n(nodestyle.ConnectorR), d.Color)

	for i, line := range previewLines(nb) {
		fmt.Fprintf(b, `<text class="node-param" x="%s" y="%s" font-family="monospace" font-size="10" fill="%s">%s</text>`,
			n(nb.Box.X+8), n(nb.Box.Y+nb.Box.H+16+float64(i)*14), MutedColor, esc(line))
	}
	b.WriteString("</g>\n")
}

func iconCenter(nb scene.NodeBox) geometry.Point {
	x := nb.Box.X + 22
	if nb.Descriptor.Trigger {
		x += nodestyle.NotchDepth / 2
	}
	return geometry.Point{X: x, Y: nb.Box.Y + nb.Box.H/2}
}

func previewLines(nb scene.NodeBox) []string {
	lines := make([]string, 0, len(nb.Params)+1)
	for _, p := range nb.Params {
		lines = append(lines, paramLine(p))
	}
	if nb.MoreParams > 0 {
		lines = append(lines, moreLine(nb.MoreParams))
	}
	return lines
}

// shortType drops the package prefix of a node type ("n8n-nodes-base.set" -> "set").
func shortType(t string) string {
	if i := strings.LastIndex(t, "."); i >= 0 && i < len(t)-1 {
		return t[i+1:]
	}
	return t
}

func esc(s string) string { return html.EscapeString(s) }
