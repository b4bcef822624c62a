package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Curve tuning for CurvedPath.
const (
	CurveFactor    = 0.5
	MaxCurveOffset = 150.0
	MinCurveOffset = 20.0
)

// SegmentKind identifies a path command.
type SegmentKind int

const (
	MoveTo SegmentKind = iota
	LineTo
	CubicTo
)

// Segment is one path command. C1 and C2 are only meaningful for CubicTo.
type Segment struct {
	Kind SegmentKind
	C1   Point
	C2   Point
	To   Point
}

// Path is an ordered list of segments starting with a MoveTo.
type Path struct {
	Segments []Segment
}

// Start is the first point of the path.
func (p Path) Start() Point {
	if len(p.Segments) == 0 {
		return Point{}
	}
	return p.Segments[0].To
}

// End is the last point of the path.
func (p Path) End() Point {
	if len(p.Segments) == 0 {
		return Point{}
	}
	return p.Segments[len(p.Segments)-1].To
}

// D renders the path as an SVG path data string.
func (p Path) D() string {
	var b strings.Builder
	for i, s := range p.Segments {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.Kind {
		case MoveTo:
			b.WriteString("M " + pt(s.To))
		case LineTo:
			b.WriteString("L " + pt(s.To))
		case CubicTo:
			b.WriteString("C " + pt(s.C1) + ", " + pt(s.C2) + ", " + pt(s.To))
		}
	}
	return b.String()
}

// EndAngle is the direction of travel, in radians, as the path arrives at
// its last point.
func (p Path) EndAngle() float64 {
	n := len(p.Segments)
	if n < 2 {
		return 0
	}
	last := p.Segments[n-1]
	from := p.Segments[n-2].To
	if last.Kind == CubicTo {
		from = last.C2
		if from == last.To {
			from = last.C1
		}
	}
	if from == last.To {
		// Degenerate tail: fall back to the previous vertex.
		for i := n - 2; i >= 0; i-- {
			if p.Segments[i].To != last.To {
				from = p.Segments[i].To
				break
			}
		}
	}
	if from == last.To {
		return 0
	}
	return math.Atan2(last.To.Y-from.Y, last.To.X-from.X)
}

// Midpoint returns a point halfway along the path, used to anchor labels.
// Cubic segments are evaluated at t=0.5.
func (p Path) Midpoint() Point {
	switch len(p.Segments) {
	case 0:
		return Point{}
	case 1:
		return p.Segments[0].To
	}
	if len(p.Segments) == 2 && p.Segments[1].Kind == CubicTo {
		s := p.Segments[1]
		return cubicAt(p.Segments[0].To, s.C1, s.C2, s.To, 0.5)
	}

	// Polyline: walk to half the total length.
	total := 0.0
	for i := 1; i < len(p.Segments); i++ {
		total += dist(p.Segments[i-1].To, p.Segments[i].To)
	}
	half := total / 2
	for i := 1; i < len(p.Segments); i++ {
		a, b := p.Segments[i-1].To, p.Segments[i].To
		d := dist(a, b)
		if d >= half && d > 0 {
			t := half / d
			return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		}
		half -= d
	}
	return p.End()
}

func (p Path) String() string { return fmt.Sprintf("path(%s)", p.D()) }

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// CurveOffset is the horizontal control-point distance for an edge spanning
// dx: proportional to the span, capped at MaxCurveOffset.
func CurveOffset(dx float64) float64 {
	off := math.Abs(dx) * CurveFactor
	if off > MaxCurveOffset {
		off = MaxCurveOffset
	}
	if off < MinCurveOffset {
		off = MinCurveOffset
	}
	return off
}

// CurvedPath returns a cubic bezier from p1 to p2 that leaves p1 heading
// right and arrives at p2 heading right.
func CurvedPath(p1, p2 Point) Path {
	off := CurveOffset(p2.X - p1.X)
	return Path{Segments: []Segment{
		{Kind: MoveTo, To: p1},
		{Kind: CubicTo, C1: Point{X: p1.X + off, Y: p1.Y}, C2: Point{X: p2.X - off, Y: p2.Y}, To: p2},
	}}
}

// OrthogonalPath routes p1 to p2 with exactly two right-angle turns at the
// horizontal midpoint.
func OrthogonalPath(p1, p2 Point) Path {
	midX := (p1.X + p2.X) / 2
	return Path{Segments: []Segment{
		{Kind: MoveTo, To: p1},
		{Kind: LineTo, To: Point{X: midX, Y: p1.Y}},
		{Kind: LineTo, To: Point{X: midX, Y: p2.Y}},
		{Kind: LineTo, To: p2},
	}}
}
