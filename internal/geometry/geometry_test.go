package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeAnchors(t *testing.T) {
	src := Rect{X: 0, Y: 0, W: 220, H: 80}
	dst := Rect{X: 300, Y: 0, W: 200, H: 80}

	start, end := EdgeAnchors(src, dst)
	assert.Equal(t, Point{X: 220, Y: 40}, start)
	assert.Equal(t, Point{X: 300, Y: 40}, end)

	// Same boxes, reversed call order elsewhere, same answer.
	_, _ = EdgeAnchors(dst, src)
	start2, end2 := EdgeAnchors(src, dst)
	assert.Equal(t, start, start2)
	assert.Equal(t, end, end2)
}

func TestCurveOffsetProportionalAndCapped(t *testing.T) {
	assert.Equal(t, 40.0, CurveOffset(80))
	assert.Equal(t, 40.0, CurveOffset(-80))
	assert.Equal(t, MaxCurveOffset, CurveOffset(1000))
	assert.Equal(t, MinCurveOffset, CurveOffset(0))
}

func TestCurvedPath(t *testing.T) {
	p := CurvedPath(Point{X: 220, Y: 40}, Point{X: 300, Y: 40})
	require.Len(t, p.Segments, 2)
	assert.Equal(t, "M 220 40 C 260 40, 260 40, 300 40", p.D())
	assert.Equal(t, Point{X: 220, Y: 40}, p.Start())
	assert.Equal(t, Point{X: 300, Y: 40}, p.End())
	assert.InDelta(t, 0, p.EndAngle(), 1e-9)
}

func TestCurvedPathLongEdgeIsCapped(t *testing.T) {
	p := CurvedPath(Point{X: 0, Y: 0}, Point{X: 1000, Y: 200})
	assert.Equal(t, "M 0 0 C 150 0, 850 200, 1000 200", p.D())
}

func TestOrthogonalPathHasTwoTurns(t *testing.T) {
	p := OrthogonalPath(Point{X: 100, Y: 40}, Point{X: 300, Y: 140})
	assert.Equal(t, "M 100 40 L 200 40 L 200 140 L 300 140", p.D())

	turns := 0
	for i := 2; i < len(p.Segments); i++ {
		a, b, c := p.Segments[i-2].To, p.Segments[i-1].To, p.Segments[i].To
		v1, v2 := b.Sub(a), c.Sub(b)
		if v1.X*v2.X+v1.Y*v2.Y == 0 {
			turns++
		}
	}
	assert.Equal(t, 2, turns)
	assert.InDelta(t, 0, p.EndAngle(), 1e-9)
}

func TestPathMidpoint(t *testing.T) {
	orth := OrthogonalPath(Point{X: 0, Y: 0}, Point{X: 200, Y: 0})
	assert.Equal(t, Point{X: 100, Y: 0}, orth.Midpoint())

	curve := CurvedPath(Point{X: 0, Y: 0}, Point{X: 200, Y: 100})
	mid := curve.Midpoint()
	assert.InDelta(t, 100, mid.X, 1e-9)
	assert.InDelta(t, 50, mid.Y, 1e-9)
}

func TestArrowHeadTipTouchesAnchor(t *testing.T) {
	tip := Point{X: 300, Y: 40}
	head := ArrowHead(tip, 0, 10)
	require.Len(t, head, 3)
	assert.Equal(t, tip, head[0])

	// Base points sit behind the tip, symmetric about the axis.
	assert.Less(t, head[1].X, tip.X)
	assert.Less(t, head[2].X, tip.X)
	assert.InDelta(t, tip.Y-head[1].Y, head[2].Y-tip.Y, 1e-9)
	assert.InDelta(t, 10*math.Cos(ArrowSpread), tip.X-head[1].X, 1e-9)
}

func TestArrowHeadFollowsApproachAngle(t *testing.T) {
	tip := Point{X: 0, Y: 0}
	head := ArrowHead(tip, math.Pi/2, 10) // travelling downwards
	assert.Less(t, head[1].Y, tip.Y)
	assert.Less(t, head[2].Y, tip.Y)
}

func TestPolygonPoints(t *testing.T) {
	pg := Polygon{{X: 1, Y: 2}, {X: 3.456, Y: -0.001}, {X: 5, Y: 6}}
	assert.Equal(t, "1,2 3.46,0 5,6", pg.Points())
}

func TestRectUnionAndContains(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 20, Y: -5, W: 10, H: 10}
	u := a.Union(b)
	assert.Equal(t, Rect{X: 0, Y: -5, W: 30, H: 15}, u)
	assert.Equal(t, a, Rect{}.Union(a))
	assert.True(t, a.Contains(Point{X: 10, Y: 10}))
	assert.False(t, a.Contains(Point{X: 11, Y: 5}))
}

func TestRouterFor(t *testing.T) {
	r, err := RouterFor("")
	require.NoError(t, err)
	assert.Equal(t, "curved", r.Name())

	r, err = RouterFor("Orthogonal")
	require.NoError(t, err)
	assert.Equal(t, "orthogonal", r.Name())

	_, err = RouterFor("spline")
	assert.ErrorIs(t, err, ErrUnknownRouter)
}
