// Package layer models the ordered list of master and lot layers that make
// up a composited map, and its persisted JSON form.
package layer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/models"
)

var (
	// ErrBowtie is returned when destination corners would form a
	// self-intersecting quad.
	ErrBowtie = errors.New("layer: destination corners cross")

	// ErrCorner is returned for a corner index outside 0..3.
	ErrCorner = errors.New("layer: corner index out of range")

	// ErrNotLot is returned when a lot-only operation targets the master.
	ErrNotLot = errors.New("layer: not a lot layer")

	// ErrNonFinite is returned for a corner with a NaN or infinite
	// coordinate. Such a corner cannot be drawn or persisted.
	ErrNonFinite = errors.New("layer: corner is not finite")
)

// Kind distinguishes the background master from overlay lots.
type Kind int

const (
	KindMaster Kind = iota
	KindLot
)

func (k Kind) String() string {
	switch k {
	case KindMaster:
		return models.TypeMaster
	case KindLot:
		return models.TypeLot
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is one renderable image placed on the canvas. Src and Dst are both
// ordered top-left, top-right, bottom-right, bottom-left; Src is always the
// image's own rectangle and Dst lives in master pixel space.
type Layer struct {
	Kind    Kind
	URL     string
	MediaID string
	Src     [4]geo.Point
	Dst     [4]geo.Point

	// Image is nil until the source has been fetched and decoded.
	Image *gg.ImageBuf
	// LoadErr holds the last load failure; the layer keeps its geometry.
	LoadErr error
}

// NewMaster returns a master layer covering a w×h canvas.
func NewMaster(url, mediaID string, w, h float64) *Layer {
	r := geo.Rect(w, h)
	return &Layer{
		Kind:    KindMaster,
		URL:     url,
		MediaID: mediaID,
		Src:     r,
		Dst:     r,
	}
}

// NewLot returns a lot layer. src may be the zero value when the image size
// is not known yet; SetImage fills it in. dst must be finite and must not be
// a bowtie.
func NewLot(url, mediaID string, src, dst [4]geo.Point) (*Layer, error) {
	if !geo.AllFinite(dst[:]...) {
		return nil, ErrNonFinite
	}
	if !geo.IsSimpleQuad(dst) {
		return nil, ErrBowtie
	}
	return &Layer{
		Kind:    KindLot,
		URL:     url,
		MediaID: mediaID,
		Src:     src,
		Dst:     dst,
	}, nil
}

// DefaultLotCorners returns the initial destination of a new lot: the
// middle half of a w×h canvas.
func DefaultLotCorners(w, h float64) [4]geo.Point {
	return [4]geo.Point{
		{X: w * 0.25, Y: h * 0.25},
		{X: w * 0.75, Y: h * 0.25},
		{X: w * 0.75, Y: h * 0.75},
		{X: w * 0.25, Y: h * 0.75},
	}
}

// Loaded reports whether the layer has pixels to draw.
func (l *Layer) Loaded() bool {
	return l.Image != nil
}

// Size returns the natural size recorded in Src.
func (l *Layer) Size() (w, h float64) {
	lo, hi := geo.Bounds(l.Src[:])
	return hi.X - lo.X, hi.Y - lo.Y
}

// SetImage attaches decoded pixels. The source rectangle follows the image;
// for the master the destination does too.
func (l *Layer) SetImage(img *gg.ImageBuf) {
	l.Image = img
	l.LoadErr = nil
	if img == nil {
		return
	}
	w, h := img.Bounds()
	r := geo.Rect(float64(w), float64(h))
	l.Src = r
	if l.Kind == KindMaster {
		l.Dst = r
	}
}

// MoveCorner sets destination corner i to p. A non-finite p, or a move that
// would turn the quad into a bowtie, is refused and leaves the layer
// unchanged.
func (l *Layer) MoveCorner(i int, p geo.Point) error {
	if l.Kind != KindLot {
		return ErrNotLot
	}
	if i < 0 || i > 3 {
		return fmt.Errorf("%w: %d", ErrCorner, i)
	}
	if !p.Finite() {
		return fmt.Errorf("%w: (%v, %v)", ErrNonFinite, p.X, p.Y)
	}
	next := l.Dst
	next[i] = p
	if !geo.IsSimpleQuad(next) {
		return ErrBowtie
	}
	l.Dst = next
	return nil
}

// Contains reports whether p lies inside the destination quad.
func (l *Layer) Contains(p geo.Point) bool {
	return geo.PointInPolygon(p, l.Dst[:])
}

// FixWinding returns dst unchanged when it is already a simple quad.
// Otherwise it searches the orderings that keep corner 0 in place for a
// simple ring, oriented like the source rectangle, and reports whether one
// was found.
func FixWinding(dst [4]geo.Point) ([4]geo.Point, bool) {
	if geo.IsSimpleQuad(dst) {
		return dst, true
	}
	for _, order := range [...][4]int{{0, 1, 3, 2}, {0, 2, 1, 3}} {
		q := [4]geo.Point{dst[order[0]], dst[order[1]], dst[order[2]], dst[order[3]]}
		if !geo.IsSimpleQuad(q) {
			continue
		}
		if geo.SignedArea(q[:]) < 0 {
			q[1], q[3] = q[3], q[1]
		}
		return q, true
	}
	return dst, false
}
