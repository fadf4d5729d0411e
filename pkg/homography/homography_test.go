package homography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

const tol = 1e-6

func assertMapsCorners(t *testing.T, h Matrix, src, dst [4]geo.Point) {
	t.Helper()
	for i := range src {
		got := Transform(h, src[i].X, src[i].Y)
		assert.InDelta(t, dst[i].X, got.X, tol, "corner %d x", i)
		assert.InDelta(t, dst[i].Y, got.Y, tol, "corner %d y", i)
	}
}

func TestComputeExactAtCorners(t *testing.T) {
	cases := []struct {
		name string
		src  [4]geo.Point
		dst  [4]geo.Point
	}{
		{
			name: "square to trapezoid",
			src:  geo.Rect(100, 100),
			dst:  [4]geo.Point{{X: 50, Y: 0}, {X: 150, Y: 0}, {X: 180, Y: 100}, {X: 20, Y: 100}},
		},
		{
			name: "rectangle to skewed quad",
			src:  geo.Rect(640, 480),
			dst:  [4]geo.Point{{X: 120.5, Y: 33}, {X: 702, Y: 80.25}, {X: 655, Y: 610}, {X: 90, Y: 540}},
		},
		{
			name: "quad to quad",
			src:  [4]geo.Point{{X: 10, Y: 20}, {X: 300, Y: 5}, {X: 280, Y: 260}, {X: -15, Y: 240}},
			dst:  [4]geo.Point{{X: 0, Y: 0}, {X: 512, Y: 0}, {X: 512, Y: 512}, {X: 0, Y: 512}},
		},
		{
			name: "strong perspective",
			src:  geo.Rect(1000, 800),
			dst:  [4]geo.Point{{X: 400, Y: 100}, {X: 600, Y: 100}, {X: 990, Y: 790}, {X: 10, Y: 790}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Compute(tc.src, tc.dst)
			require.NoError(t, err)
			assert.Equal(t, 1.0, h[8])
			assert.True(t, h.Finite())
			assertMapsCorners(t, h, tc.src, tc.dst)
		})
	}
}

func TestComputeIdentity(t *testing.T) {
	quads := [][4]geo.Point{
		geo.Rect(100, 100),
		{{X: 50, Y: 0}, {X: 150, Y: 0}, {X: 180, Y: 100}, {X: 20, Y: 100}},
		{{X: 3, Y: 7}, {X: 91, Y: 12}, {X: 84, Y: 77}, {X: 8, Y: 60}},
	}
	for _, r := range quads {
		h, err := Compute(r, r)
		require.NoError(t, err)
		assertMapsCorners(t, h, r, r)

		// Identity off the corners too.
		c := geo.Centroid(r[:])
		got := h.Apply(c)
		assert.InDelta(t, c.X, got.X, tol)
		assert.InDelta(t, c.Y, got.Y, tol)
		for i, v := range Identity() {
			assert.InDelta(t, v, h[i], tol)
		}
	}
}

func TestTrapezoidMidline(t *testing.T) {
	src := geo.Rect(100, 100)
	dst := [4]geo.Point{{X: 50, Y: 0}, {X: 150, Y: 0}, {X: 180, Y: 100}, {X: 20, Y: 100}}
	h, err := Compute(src, dst)
	require.NoError(t, err)

	// The symmetric trapezoid keeps the vertical axis of symmetry fixed.
	mid := h.Apply(geo.Pt(50, 50))
	assert.InDelta(t, 100, mid.X, tol)

	// Left and right midpoints of the source land on the slanted edges and
	// at the same height.
	left := h.Apply(geo.Pt(0, 50))
	right := h.Apply(geo.Pt(100, 50))
	assert.InDelta(t, left.Y, right.Y, tol)
	assert.InDelta(t, 100, (left.X+right.X)/2, tol)
}

func TestComputeCollinearDegrades(t *testing.T) {
	src := geo.Rect(100, 100)
	dst := [4]geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 30, Y: 0}}

	var err error
	assert.NotPanics(t, func() { _, err = Compute(src, dst) })
	assert.ErrorIs(t, err, geo.ErrSingular)
}

func TestTransformAtInfinity(t *testing.T) {
	h := Matrix{1, 0, 0, 0, 1, 0, 1, 0, 0}
	p := Transform(h, 0, 5)
	assert.False(t, p.Finite())
}

func BenchmarkCompute(b *testing.B) {
	src := geo.Rect(1024, 768)
	dst := [4]geo.Point{{X: 120, Y: 40}, {X: 900, Y: 90}, {X: 1000, Y: 700}, {X: 60, Y: 650}}
	for i := 0; i < b.N; i++ {
		_, _ = Compute(src, dst)
	}
}
