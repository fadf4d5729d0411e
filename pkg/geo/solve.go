package geo

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the smallest pivot magnitude the solver divides by.
const Epsilon = 1e-10

var (
	// ErrSingular reports that at least one pivot fell below Epsilon. The
	// accompanying solution is still returned but its skipped coefficients
	// carry whatever was left in the augmented column.
	ErrSingular = errors.New("geo: singular system")

	// ErrDimension reports a matrix/vector shape mismatch.
	ErrDimension = errors.New("geo: dimension mismatch")
)

// Solve returns x such that a·x = b using Gauss-Jordan elimination with
// partial pivoting. a must be n×n and b length n; neither is modified.
//
// A pivot below Epsilon does not abort the solve: that column is skipped,
// the remaining columns are still reduced and ErrSingular is returned
// alongside the degraded result.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(a) != n {
		return nil, fmt.Errorf("%w: %d rows for %d unknowns", ErrDimension, len(a), n)
	}

	// Augmented working copy [a | b].
	m := make([][]float64, n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimension, i, len(row), n)
		}
		m[i] = make([]float64, n+1)
		copy(m[i], row)
		m[i][n] = b[i]
	}

	singular := false
	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(m[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < Epsilon || math.IsNaN(best) {
			singular = true
			continue
		}
		m[col], m[pivot] = m[pivot], m[col]

		div := m[col][col]
		for c := col; c <= n; c++ {
			m[col][c] /= div
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := m[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = m[i][n]
	}
	if singular {
		return x, ErrSingular
	}
	return x, nil
}
