// Package rtree keeps an R-Tree over the bounding boxes of destination quads
// so hit-testing only runs the exact polygon test on nearby layers.
package rtree

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

const (
	// tolerance is the minimum extent of an indexed box, so that collapsed
	// quads still produce a valid rectangle.
	tolerance   = 0.01
	minChildren = 4
	maxChildren = 16
	dimensions  = 2
)

// spatialQuad wraps a quad to implement rtreego.Spatial
type spatialQuad struct {
	id   int
	quad [4]geo.Point
	rect *rtreego.Rect
}

func (sq *spatialQuad) Bounds() *rtreego.Rect {
	return sq.rect
}

// Entry is one quad stored in the index under a caller-chosen id.
type Entry struct {
	ID   int
	Quad [4]geo.Point
}

// QuadIndex is a thread-safe R-Tree over quad bounding boxes.
type QuadIndex struct {
	mu        sync.RWMutex
	tree      *rtreego.Rtree
	items     map[int]*spatialQuad
	itemCount atomic.Int64
}

// NewQuadIndex creates an empty index.
func NewQuadIndex() *QuadIndex {
	return &QuadIndex{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		items: make(map[int]*spatialQuad),
	}
}

func boundsRect(q [4]geo.Point) (*rtreego.Rect, error) {
	if !geo.AllFinite(q[:]...) {
		return nil, fmt.Errorf("quad has non-finite corners")
	}
	lo, hi := geo.Bounds(q[:])
	return rtreego.NewRect(
		rtreego.Point{lo.X, lo.Y},
		[]float64{extent(hi.X - lo.X), extent(hi.Y - lo.Y)},
	)
}

func extent(d float64) float64 {
	if d < tolerance {
		return tolerance
	}
	return d
}

// Insert adds or replaces the quad stored under id.
func (x *QuadIndex) Insert(id int, q [4]geo.Point) error {
	rect, err := boundsRect(q)
	if err != nil {
		return fmt.Errorf("failed to index quad %d: %w", id, err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.items[id]; ok {
		x.tree.Delete(old)
	}
	item := &spatialQuad{id: id, quad: q, rect: rect}
	x.tree.Insert(item)
	x.items[id] = item
	x.itemCount.Store(int64(len(x.items)))
	return nil
}

// IndexQuads replaces the whole index with entries. Entries with
// non-finite corners are skipped and counted in the returned value.
func (x *QuadIndex) IndexQuads(entries []Entry) int {
	items := make([]*spatialQuad, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		rect, err := boundsRect(e.Quad)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, &spatialQuad{id: e.ID, quad: e.Quad, rect: rect})
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	x.items = make(map[int]*spatialQuad, len(items))
	for _, item := range items {
		if old, ok := x.items[item.id]; ok {
			x.tree.Delete(old)
		}
		x.tree.Insert(item)
		x.items[item.id] = item
	}
	x.itemCount.Store(int64(len(x.items)))
	return skipped
}

// Remove deletes the quad stored under id and reports whether it existed.
func (x *QuadIndex) Remove(id int) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	item, ok := x.items[id]
	if !ok {
		return false
	}
	x.tree.Delete(item)
	delete(x.items, id)
	x.itemCount.Store(int64(len(x.items)))
	return true
}

// Candidates returns the ids whose bounding box contains p, highest id
// first. The quads themselves are not tested.
func (x *QuadIndex) Candidates(p geo.Point) []int {
	if !p.Finite() {
		return nil
	}
	return x.search(p, p)
}

// QueryBox returns the ids whose bounding box intersects the box lo..hi,
// highest id first.
func (x *QuadIndex) QueryBox(lo, hi geo.Point) []int {
	if !lo.Finite() || !hi.Finite() || hi.X < lo.X || hi.Y < lo.Y {
		return nil
	}
	return x.search(lo, hi)
}

// Contains returns the ids whose quad contains p, highest id first.
func (x *QuadIndex) Contains(p geo.Point) []int {
	var out []int
	for _, id := range x.Candidates(p) {
		x.mu.RLock()
		item, ok := x.items[id]
		x.mu.RUnlock()
		if ok && geo.PointInPolygon(p, item.quad[:]) {
			out = append(out, id)
		}
	}
	return out
}

func (x *QuadIndex) search(lo, hi geo.Point) []int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bounds, err := rtreego.NewRect(
		rtreego.Point{lo.X, lo.Y},
		[]float64{extent(hi.X - lo.X), extent(hi.Y - lo.Y)},
	)
	if err != nil {
		return nil
	}

	results := x.tree.SearchIntersect(bounds)
	ids := make([]int, 0, len(results))
	for _, r := range results {
		item, ok := r.(*spatialQuad)
		if !ok {
			continue
		}
		ids = append(ids, item.id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	return ids
}

// Count returns the number of indexed quads
func (x *QuadIndex) Count() int64 {
	return x.itemCount.Load()
}

// Clear removes all quads from the index
func (x *QuadIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	x.items = make(map[int]*spatialQuad)
	x.itemCount.Store(0)
}
