package geo

import "math"

// PointInPolygon reports whether p lies inside poly using the crossing-number
// (ray casting) test. Points exactly on an edge may fall either way.
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// SignedArea returns the shoelace area of poly. In a y-down canvas a
// clockwise (top-left, top-right, bottom-right, bottom-left) ring is positive.
func SignedArea(poly []Point) float64 {
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return sum / 2
}

// TriangleArea returns the unsigned area of the triangle abc.
func TriangleArea(a, b, c Point) float64 {
	return math.Abs(b.Sub(a).Cross(c.Sub(a))) / 2
}

// Bounds returns the minimum and maximum corners of the axis-aligned box
// enclosing pts.
func Bounds(pts []Point) (lo, hi Point) {
	if len(pts) == 0 {
		return Point{}, Point{}
	}
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// IsSimpleQuad reports whether the ring q0→q1→q2→q3→q0 has no proper
// crossing between its opposite edges. A ring whose corners were paired in
// the wrong order ("bowtie") fails this test. Degenerate rings with touching
// or collinear corners are not rejected here.
func IsSimpleQuad(q [4]Point) bool {
	return !segmentsCross(q[0], q[1], q[2], q[3]) &&
		!segmentsCross(q[1], q[2], q[3], q[0])
}

// segmentsCross reports a proper intersection of ab and cd.
func segmentsCross(a, b, c, d Point) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	return d1*d2 < 0 && d3*d4 < 0
}

// orient returns the sign of the turn a→b→c, snapping tiny magnitudes to 0.
func orient(a, b, c Point) float64 {
	v := b.Sub(a).Cross(c.Sub(a))
	if math.Abs(v) < Epsilon {
		return 0
	}
	return math.Copysign(1, v)
}

// Centroid returns the vertex average of pts.
func Centroid(pts []Point) Point {
	var c Point
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}
