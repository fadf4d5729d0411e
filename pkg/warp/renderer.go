package warp

import (
	"errors"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/homography"
)

// DefaultGrid is the number of cells per side used to approximate the warp.
const DefaultGrid = 10

// Stats summarizes one DrawWarpedLayer call.
type Stats struct {
	Drawn    int
	Skipped  int
	Singular bool
}

// Renderer draws projective warps as Grid×Grid piecewise-affine patches.
// Higher Grid values follow the true perspective more closely at the cost of
// 2·Grid² triangle fills.
type Renderer struct {
	Grid int
}

// NewRenderer returns a Renderer with the given grid, falling back to
// DefaultGrid for non-positive values.
func NewRenderer(grid int) *Renderer {
	if grid <= 0 {
		grid = DefaultGrid
	}
	return &Renderer{Grid: grid}
}

// DrawWarpedLayer warps the src rectangle of tex onto the dst quad.
//
// The homography is recomputed on every call since dst changes while a corner
// is dragged. Lattice points that project to a non-finite position take
// their triangles out of the draw; a singular fit is drawn as far as it
// stays finite and flagged in Stats.
func (r *Renderer) DrawWarpedLayer(t Target, tex *gg.ImageBuf, src, dst [4]geo.Point) (Stats, error) {
	var stats Stats

	h, err := homography.Compute(src, dst)
	if err != nil {
		if !errors.Is(err, geo.ErrSingular) {
			return stats, err
		}
		stats.Singular = true
	}

	n := r.Grid
	if n <= 0 {
		n = DefaultGrid
	}

	lo, hi := geo.Bounds(src[:])
	cellW := (hi.X - lo.X) / float64(n)
	cellH := (hi.Y - lo.Y) / float64(n)

	// Lattice of source points and their projections, (n+1)² each.
	srcPts := make([]geo.Point, (n+1)*(n+1))
	dstPts := make([]geo.Point, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			p := geo.Pt(lo.X+float64(i)*cellW, lo.Y+float64(j)*cellH)
			// Outer lattice sits exactly on the source edges.
			if i == n {
				p.X = hi.X
			}
			if j == n {
				p.Y = hi.Y
			}
			k := j*(n+1) + i
			srcPts[k] = p
			dstPts[k] = h.Apply(p)
		}
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			k00 := j*(n+1) + i
			k10 := k00 + 1
			k01 := k00 + n + 1
			k11 := k01 + 1

			tris := [2][3]int{{k00, k10, k11}, {k00, k11, k01}}
			for _, tri := range tris {
				s := [3]geo.Point{srcPts[tri[0]], srcPts[tri[1]], srcPts[tri[2]]}
				d := [3]geo.Point{dstPts[tri[0]], dstPts[tri[1]], dstPts[tri[2]]}
				ok, err := DrawTriangle(t, tex, s, d)
				if err != nil {
					return stats, err
				}
				if ok {
					stats.Drawn++
				} else {
					stats.Skipped++
				}
			}
		}
	}
	return stats, nil
}
