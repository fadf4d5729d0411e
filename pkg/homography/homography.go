// Package homography fits and applies the 3x3 projective transform that maps
// four source corners onto four destination corners.
package homography

import (
	"fmt"
	"math"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

// Matrix is a row-major 3x3 projective transform. H22 is fixed to 1 by
// Compute.
type Matrix [9]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Compute returns H such that Transform(H, src[i]) ≈ dst[i] for i in 0..3.
//
// A degenerate configuration (collinear or repeated corners) yields a
// wrapped geo.ErrSingular together with the best-effort matrix; callers
// that draw with it must check projected points with geo.Point.Finite.
func Compute(src, dst [4]geo.Point) (Matrix, error) {
	a := make([][]float64, 8)
	b := make([]float64, 8)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y
		r := 2 * i

		// h00·x + h01·y + h02 − h20·x·x' − h21·y·x' = x'
		a[r] = []float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp}
		b[r] = xp

		// h10·x + h11·y + h12 − h20·x·y' − h21·y·y' = y'
		a[r+1] = []float64{0, 0, 0, x, y, 1, -x * yp, -y * yp}
		b[r+1] = yp
	}

	h, err := geo.Solve(a, b)
	if h == nil {
		return Matrix{}, fmt.Errorf("homography: %w", err)
	}
	m := Matrix{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}
	if err != nil {
		return m, fmt.Errorf("homography: %w", err)
	}
	return m, nil
}

// Transform maps (x, y) through h. The homogeneous divide is unguarded: a
// point on the line at infinity comes back as ±Inf or NaN.
func Transform(h Matrix, x, y float64) geo.Point {
	numX := h[0]*x + h[1]*y + h[2]
	numY := h[3]*x + h[4]*y + h[5]
	w := h[6]*x + h[7]*y + h[8]
	return geo.Point{X: numX / w, Y: numY / w}
}

// Apply is Transform for a point value.
func (h Matrix) Apply(p geo.Point) geo.Point {
	return Transform(h, p.X, p.Y)
}

// Finite reports whether every coefficient is finite.
func (h Matrix) Finite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
