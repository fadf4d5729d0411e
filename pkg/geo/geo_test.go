package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveIdentity(t *testing.T) {
	a := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	b := []float64{3, -2, 7}

	x, err := Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, b, x, 1e-12)
}

func TestSolveNeedsPivoting(t *testing.T) {
	// Leading zero forces a row swap.
	a := [][]float64{
		{0, 2, 1},
		{1, -2, -3},
		{-1, 1, 2},
	}
	want := []float64{2, -1, 3}
	b := make([]float64, 3)
	for i := range a {
		for j := range a[i] {
			b[i] += a[i][j] * want[j]
		}
	}

	x, err := Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, x, 1e-9)
}

func TestSolveLeavesInputsUntouched(t *testing.T) {
	a := [][]float64{{2, 1}, {1, 3}}
	b := []float64{3, 5}

	_, err := Solve(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1}, {1, 3}}, a)
	assert.Equal(t, []float64{3, 5}, b)
}

func TestSolveSingularDoesNotPanic(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	b := []float64{3, 6}

	var (
		x   []float64
		err error
	)
	assert.NotPanics(t, func() { x, err = Solve(a, b) })
	assert.ErrorIs(t, err, ErrSingular)
	assert.Len(t, x, 2)
}

func TestSolveDimensionMismatch(t *testing.T) {
	_, err := Solve([][]float64{{1, 2}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Solve([][]float64{{1, 2}, {3}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{{10, 10}, {110, 10}, {110, 110}, {10, 110}}
	assert.True(t, PointInPolygon(Pt(60, 60), square))
	assert.True(t, PointInPolygon(Pt(11, 109), square))
	assert.False(t, PointInPolygon(Pt(5, 5), square))
	assert.False(t, PointInPolygon(Pt(111, 60), square))

	// Square rotated 45 degrees around (50, 50).
	diamond := []Point{{50, 0}, {100, 50}, {50, 100}, {0, 50}}
	assert.True(t, PointInPolygon(Pt(50, 50), diamond))
	assert.True(t, PointInPolygon(Pt(70, 50), diamond))
	assert.False(t, PointInPolygon(Pt(10, 10), diamond))
	assert.False(t, PointInPolygon(Pt(90, 90), diamond))
}

func TestSignedArea(t *testing.T) {
	cw := []Point{{0, 0}, {10, 0}, {10, 5}, {0, 5}}
	assert.InDelta(t, 50, SignedArea(cw), 1e-12)

	ccw := []Point{{0, 0}, {0, 5}, {10, 5}, {10, 0}}
	assert.InDelta(t, -50, SignedArea(ccw), 1e-12)
}

func TestIsSimpleQuad(t *testing.T) {
	assert.True(t, IsSimpleQuad([4]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}))
	assert.True(t, IsSimpleQuad([4]Point{{50, 0}, {150, 0}, {180, 100}, {20, 100}}))
	// Concave but still simple.
	assert.True(t, IsSimpleQuad([4]Point{{0, 0}, {10, 0}, {3, 3}, {0, 10}}))
	// Bottom corners swapped.
	assert.False(t, IsSimpleQuad([4]Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}}))
	// Right corners swapped.
	assert.False(t, IsSimpleQuad([4]Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}))
}

func TestBoundsAndCentroid(t *testing.T) {
	pts := []Point{{50, 0}, {150, 0}, {180, 100}, {20, 100}}
	lo, hi := Bounds(pts)
	assert.Equal(t, Pt(20, 0), lo)
	assert.Equal(t, Pt(180, 100), hi)
	assert.Equal(t, Pt(100, 50), Centroid(pts))
}

func TestFinite(t *testing.T) {
	assert.True(t, Pt(1, 2).Finite())
	assert.False(t, Pt(math.NaN(), 0).Finite())
	assert.False(t, Pt(0, math.Inf(1)).Finite())
	assert.False(t, AllFinite(Pt(0, 0), Pt(math.Inf(-1), 0)))
}

func BenchmarkSolve8(b *testing.B) {
	a := make([][]float64, 8)
	rhs := make([]float64, 8)
	for i := range a {
		a[i] = make([]float64, 8)
		for j := range a[i] {
			a[i][j] = float64((i + 1) * (j + 2) % 7)
		}
		a[i][i] += 10
		rhs[i] = float64(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Solve(a, rhs)
	}
}
