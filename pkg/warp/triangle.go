// Package warp rasterizes a source image onto an arbitrary quadrilateral by
// splitting the projective warp into small affine-mapped triangles.
package warp

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

// degenerateArea is the smallest triangle area (in square pixels) that is
// still drawn.
const degenerateArea = 1e-9

// Target receives textured triangles. dst is the destination triangle that
// bounds the fill and m maps source-image pixels onto canvas pixels.
type Target interface {
	FillTexturedTriangle(tex *gg.ImageBuf, dst [3]geo.Point, m gg.Matrix) error
}

// AffineFromTriangles solves the unique affine map taking src[i] onto dst[i]
// with Cramer's rule. It reports false when src has (near) zero area.
func AffineFromTriangles(src, dst [3]geo.Point) (gg.Matrix, bool) {
	x0, y0 := src[0].X, src[0].Y
	x1, y1 := src[1].X, src[1].Y
	x2, y2 := src[2].X, src[2].Y

	den := x0*(y1-y2) - x1*(y0-y2) + x2*(y0-y1)
	if math.Abs(den) < 2*degenerateArea || math.IsNaN(den) {
		return gg.Matrix{}, false
	}

	solve := func(u0, u1, u2 float64) (float64, float64, float64) {
		a := (u0*(y1-y2) - u1*(y0-y2) + u2*(y0-y1)) / den
		b := (x0*(u1-u2) - x1*(u0-u2) + x2*(u0-u1)) / den
		c := (u0*(x1*y2-x2*y1) - u1*(x0*y2-x2*y0) + u2*(x0*y1-x1*y0)) / den
		return a, b, c
	}

	a, b, c := solve(dst[0].X, dst[1].X, dst[2].X)
	d, e, f := solve(dst[0].Y, dst[1].Y, dst[2].Y)
	return gg.Matrix{A: a, B: b, C: c, D: d, E: e, F: f}, true
}

// DrawTriangle maps the src triangle of tex onto the dst triangle of t. It
// reports false, without touching t, when either triangle is degenerate or
// any coordinate is not finite.
func DrawTriangle(t Target, tex *gg.ImageBuf, src, dst [3]geo.Point) (bool, error) {
	if !geo.AllFinite(src[:]...) || !geo.AllFinite(dst[:]...) {
		return false, nil
	}
	if geo.TriangleArea(dst[0], dst[1], dst[2]) < degenerateArea {
		return false, nil
	}
	m, ok := AffineFromTriangles(src, dst)
	if !ok {
		return false, nil
	}
	for _, v := range [...]float64{m.A, m.B, m.C, m.D, m.E, m.F} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, nil
		}
	}
	if err := t.FillTexturedTriangle(tex, dst, m); err != nil {
		return false, err
	}
	return true, nil
}
