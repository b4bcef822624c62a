package render

import (
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/nodestyle"
	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/viewport"
)

// PNG rasterizes sc with the same translate-then-scale transform the SVG
// output uses. Text uses gg's built-in bitmap face, so icons are drawn as
// plain colored discs.
func PNG(w io.Writer, sc scene.Scene, vp viewport.State, opts Options) error {
	o := opts.withDefaults()
	dc := gg.NewContext(int(math.Ceil(o.Width)), int(math.Ceil(o.Height)))
	dc.SetHexColor(o.Background)
	dc.Clear()

	if sc.Status != scene.StatusReady {
		dc.SetHexColor(MutedColor)
		dc.DrawStringAnchored(sc.Message, o.Width/2, o.Height/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}

	dc.Push()
	dc.Translate(vp.Pan.X, vp.Pan.Y)
	dc.Scale(vp.Zoom, vp.Zoom)
	for _, layer := range sc.Layers() {
		switch layer {
		case scene.LayerEdges:
			for _, e := range sc.Edges {
				drawEdgePNG(dc, e)
			}
		case scene.LayerNodes:
			for _, nb := range sc.Nodes {
				drawNodePNG(dc, nb, nb.ID == o.Selected)
			}
		}
	}
	dc.Pop()
	return dc.EncodePNG(w)
}

func drawEdgePNG(dc *gg.Context, e scene.EdgePath) {
	dc.SetHexColor(EdgeColor)
	dc.SetLineWidth(2)
	tracePath(dc, e.Path)
	dc.Stroke()

	if len(e.Arrow) > 0 {
		dc.MoveTo(e.Arrow[0].X, e.Arrow[0].Y)
		for _, p := range e.Arrow[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		dc.Fill()
	}
	if e.Label != "" {
		dc.SetHexColor(LabelColor)
		dc.DrawStringAnchored(e.Label, e.LabelAt.X, e.LabelAt.Y-6, 0.5, 0)
	}
}

func tracePath(dc *gg.Context, p geometry.Path) {
	for _, s := range p.Segments {
		switch s.Kind {
		case geometry.MoveTo:
			dc.MoveTo(s.To.X, s.To.Y)
		case geometry.LineTo:
			dc.LineTo(s.To.X, s.To.Y)
		case geometry.CubicTo:
			dc.CubicTo(s.C1.X, s.C1.Y, s.C2.X, s.C2.Y, s.To.X, s.To.Y)
		}
	}
}

func drawNodePNG(dc *gg.Context, nb scene.NodeBox, selected bool) {
	d := nb.Descriptor
	traceOutline(dc, d, nb.Box)
	dc.SetHexColor(NodeFill)
	dc.FillPreserve()
	if selected {
		dc.SetHexColor(SelectedColor)
		dc.SetLineWidth(3)
	} else {
		dc.SetHexColor(d.Color)
		dc.SetLineWidth(2)
	}
	dc.Stroke()

	ic := iconCenter(nb)
	dc.SetHexColor(d.Color)
	dc.DrawCircle(ic.X, ic.Y, 12)
	dc.Fill()

	lx := nodeLabelX(nb)
	dc.SetHexColor(TextColor)
	dc.DrawString(nb.Name, lx, nb.Box.Y+34)
	dc.SetHexColor(MutedColor)
	dc.DrawString(shortType(nb.Type), lx, nb.Box.Y+54)

	ports := []geometry.Point{nb.Output}
	if nb.HasInput {
		ports = append(ports, nb.Input)
	}
	for _, p := range ports {
		dc.DrawCircle(p.X, p.Y, nodestyle.ConnectorR)
		dc.SetHexColor(d.Color)
		dc.FillPreserve()
		dc.SetHexColor("#ffffff")
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	dc.SetHexColor(MutedColor)
	for i, line := range previewLines(nb) {
		dc.DrawString(line, nb.Box.X+8, nb.Box.Y+nb.Box.H+16+float64(i)*14)
	}
}

// traceOutline mirrors nodestyle.Outline for the raster path API.
func traceOutline(dc *gg.Context, d nodestyle.Descriptor, box geometry.Rect) {
	x, y, w, h, r := box.X, box.Y, box.W, box.H, nodestyle.CornerRadius
	if !d.Trigger {
		dc.DrawRoundedRectangle(x, y, w, h, r)
		return
	}
	dc.NewSubPath()
	dc.MoveTo(x, y)
	dc.LineTo(x+w-r, y)
	dc.QuadraticTo(x+w, y, x+w, y+r)
	dc.LineTo(x+w, y+h-r)
	dc.QuadraticTo(x+w, y+h, x+w-r, y+h)
	dc.LineTo(x, y+h)
	dc.LineTo(x+nodestyle.NotchDepth, y+h/2)
	dc.ClosePath()
}
