// Package geometry computes connection paths and arrow glyphs between node
// boxes. Everything here is pure; the same inputs always produce the same
// path strings.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a position in model space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is an axis-aligned box. X/Y is the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RightMid is the midpoint of the right edge.
func (r Rect) RightMid() Point { return Point{X: r.X + r.W, Y: r.Y + r.H/2} }

// LeftMid is the midpoint of the left edge.
func (r Rect) LeftMid() Point { return Point{X: r.X, Y: r.Y + r.H/2} }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Union returns the smallest rect covering both r and o. A zero rect is
// treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// EdgeAnchors returns where a connection leaves the source box and enters
// the target box: the right-edge midpoint of source and the left-edge
// midpoint of target.
func EdgeAnchors(source, target Rect) (Point, Point) {
	return source.RightMid(), target.LeftMid()
}

// ─── Number formatting ───

// Num formats v rounded to two decimals with no trailing zeros.
func Num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func pt(p Point) string {
	return Num(p.X) + " " + Num(p.Y)
}

// ─── Arrowheads ───

// ArrowSpread is the half-angle (radians) between the arrow axis and each
// side of the triangle.
const ArrowSpread = 0.5

// Polygon is a closed polyline.
type Polygon []Point

// Points renders the polygon in SVG `points` syntax.
func (pg Polygon) Points() string {
	parts := make([]string, len(pg))
	for i, p := range pg {
		parts[i] = Num(p.X) + "," + Num(p.Y)
	}
	return strings.Join(parts, " ")
}

// ArrowHead returns a filled triangle pointing along angle whose tip is
// exactly at tip. angle is the direction of travel in radians.
func ArrowHead(tip Point, angle, size float64) Polygon {
	left := Point{
		X: tip.X - size*math.Cos(angle-ArrowSpread),
		Y: tip.Y - size*math.Sin(angle-ArrowSpread),
	}
	right := Point{
		X: tip.X - size*math.Cos(angle+ArrowSpread),
		Y: tip.Y - size*math.Sin(angle+ArrowSpread),
	}
	return Polygon{tip, left, right}
}

func (pg Polygon) String() string {
	return fmt.Sprintf("polygon(%s)", pg.Points())
}
