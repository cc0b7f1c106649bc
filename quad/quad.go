// Package quad implements quadrilateral regions and the projective transform
// that maps the unit square onto them.
package quad

import (
	"fmt"
	"math"
)

type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Cross returns the z component of the cross product of p and o.
func (p Point) Cross(o Point) float64 {
	return p.X*o.Y - p.Y*o.X
}

// Quad is a quadrilateral in normalized source coordinates: (0,0) is the
// top-left corner of the source image and (1,1) its bottom-right corner.
//
// The corners are matched to the corners of the unit square in this exact
// order: TopLeft to (0,0), TopRight to (1,0), BottomLeft to (0,1) and
// BottomRight to (1,1). A quad given in another order is not an error: it
// yields a mirrored or rotated picture (or, if the order makes the edges
// cross, ErrDegenerate).
type Quad struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point
}

func New(topLeft, topRight, bottomLeft, bottomRight Point) Quad {
	return Quad{
		TopLeft:     topLeft,
		TopRight:    topRight,
		BottomLeft:  bottomLeft,
		BottomRight: bottomRight,
	}
}

// FromRectangle returns the axis-aligned quad with the top-left corner at
// (x, y) of the given width and height.
func FromRectangle(x, y, width, height float64) Quad {
	return Quad{
		TopLeft:     Point{X: x, Y: y},
		TopRight:    Point{X: x + width, Y: y},
		BottomLeft:  Point{X: x, Y: y + height},
		BottomRight: Point{X: x + width, Y: y + height},
	}
}

// Full returns the quad covering the whole source image.
func Full() Quad {
	return FromRectangle(0, 0, 1, 1)
}

// FromPixels converts a quad given in pixel coordinates of a width x height
// image into normalized coordinates.
func FromPixels(q Quad, width, height int) Quad {
	w, h := float64(width), float64(height)
	normalize := func(p Point) Point {
		return Point{X: p.X / w, Y: p.Y / h}
	}
	return Quad{
		TopLeft:     normalize(q.TopLeft),
		TopRight:    normalize(q.TopRight),
		BottomLeft:  normalize(q.BottomLeft),
		BottomRight: normalize(q.BottomRight),
	}
}

// ToPixels converts q into pixel coordinates of a width x height image.
func (q Quad) ToPixels(width, height int) Quad {
	return q.Scale(float64(width), float64(height))
}

func (q Quad) Scale(sx, sy float64) Quad {
	scale := func(p Point) Point {
		return Point{X: p.X * sx, Y: p.Y * sy}
	}
	return Quad{
		TopLeft:     scale(q.TopLeft),
		TopRight:    scale(q.TopRight),
		BottomLeft:  scale(q.BottomLeft),
		BottomRight: scale(q.BottomRight),
	}
}

// Points returns the corners in the order they are matched to the unit
// square corners.
func (q Quad) Points() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomLeft, q.BottomRight}
}

// Area returns the area enclosed by the outline
// TopLeft→TopRight→BottomRight→BottomLeft (signed areas of crossing
// outlines partially cancel out).
func (q Quad) Area() float64 {
	outline := [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
	var sum float64
	for i := range outline {
		sum += outline[i].Cross(outline[(i+1)%len(outline)])
	}
	return math.Abs(sum) / 2
}

// IsRectangle reports whether q is axis-aligned with the corners in the
// canonical order.
func (q Quad) IsRectangle() bool {
	return q.TopLeft.Y == q.TopRight.Y &&
		q.BottomLeft.Y == q.BottomRight.Y &&
		q.TopLeft.X == q.BottomLeft.X &&
		q.TopRight.X == q.BottomRight.X &&
		q.TopLeft.X < q.TopRight.X &&
		q.TopLeft.Y < q.BottomLeft.Y
}

func (q Quad) String() string {
	return fmt.Sprintf("Quad{%s %s %s %s}", q.TopLeft, q.TopRight, q.BottomLeft, q.BottomRight)
}

// Validate returns ErrDegenerate if no projective transform may map the unit
// square onto q.
func (q Quad) Validate() error {
	for _, p := range q.Points() {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return ErrDegenerate{Quad: q, Reason: "non-finite coordinate"}
		}
	}

	extent := q.extent()
	if extent == 0 {
		return ErrDegenerate{Quad: q, Reason: "all points coincide"}
	}
	eps := epsilonRelative * extent * extent
	if q.Area() <= eps {
		return ErrDegenerate{Quad: q, Reason: "zero area"}
	}

	pts := q.Points()
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				if math.Abs(pts[j].Sub(pts[i]).Cross(pts[k].Sub(pts[i]))) <= eps {
					return ErrDegenerate{
						Quad:   q,
						Reason: fmt.Sprintf("points %s, %s and %s are collinear", pts[i], pts[j], pts[k]),
					}
				}
			}
		}
	}
	return nil
}

// extent returns the length of the diagonal of the bounding box.
func (q Quad) extent() float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q.Points() {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return math.Hypot(maxX-minX, maxY-minY)
}
