// Package geo provides the 2D geometry kernel used by the compositor: an
// immutable point type, a dense linear solver and polygon predicates.
package geo

import "math"

// Point is an (x, y) pair in either source-image or canvas pixel space.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Cross returns the z component of the cross product of p and q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return finite(p.X) && finite(p.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Rect returns the four corners of the axis-aligned w x h rectangle anchored
// at the origin, ordered top-left, top-right, bottom-right, bottom-left.
func Rect(w, h float64) [4]Point {
	return [4]Point{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// AllFinite reports whether every point is finite.
func AllFinite(pts ...Point) bool {
	for _, p := range pts {
		if !p.Finite() {
			return false
		}
	}
	return true
}
