package layer

import (
	"fmt"

	"github.com/gogpu/gg"
)

// List is the paint-ordered sequence of layers: index 0 is painted first.
// It holds at most one master. A List is not safe for concurrent use.
type List struct {
	layers []*Layer
}

// NewList returns a list holding layers in the given order, except that a
// master is always moved to the bottom. A later master replaces an earlier
// one.
func NewList(layers ...*Layer) *List {
	l := &List{}
	for _, ly := range layers {
		if ly.Kind == KindMaster {
			l.SetMaster(ly)
			continue
		}
		l.layers = append(l.layers, ly)
	}
	return l
}

// Len returns the number of layers.
func (l *List) Len() int { return len(l.layers) }

// At returns the layer at paint index i.
func (l *List) At(i int) *Layer { return l.layers[i] }

// Layers returns the layers in paint order. The slice is a copy; the layers
// are shared.
func (l *List) Layers() []*Layer {
	out := make([]*Layer, len(l.layers))
	copy(out, l.layers)
	return out
}

// Master returns the master layer, or nil.
func (l *List) Master() *Layer {
	if i := l.MasterIndex(); i >= 0 {
		return l.layers[i]
	}
	return nil
}

// MasterIndex returns the paint index of the master, or -1.
func (l *List) MasterIndex() int {
	for i, ly := range l.layers {
		if ly.Kind == KindMaster {
			return i
		}
	}
	return -1
}

// SetMaster replaces the existing master in place, or inserts m at the
// bottom of the paint order when there is none.
func (l *List) SetMaster(m *Layer) {
	if i := l.MasterIndex(); i >= 0 {
		l.layers[i] = m
		return
	}
	l.layers = append([]*Layer{m}, l.layers...)
}

// AppendLot adds lot on top of the paint order and returns its index.
func (l *List) AppendLot(lot *Layer) int {
	l.layers = append(l.layers, lot)
	return len(l.layers) - 1
}

// Remove deletes and returns the layer at index i.
func (l *List) Remove(i int) (*Layer, error) {
	if i < 0 || i >= len(l.layers) {
		return nil, fmt.Errorf("layer: index %d out of range [0,%d)", i, len(l.layers))
	}
	ly := l.layers[i]
	l.layers = append(l.layers[:i], l.layers[i+1:]...)
	return ly, nil
}

// Lots returns the paint indices of all lot layers, bottom first.
func (l *List) Lots() []int {
	var idx []int
	for i, ly := range l.layers {
		if ly.Kind == KindLot {
			idx = append(idx, i)
		}
	}
	return idx
}

// LotsTopmostFirst returns the paint indices of all lot layers, topmost
// (last painted) first.
func (l *List) LotsTopmostFirst() []int {
	var idx []int
	for i := len(l.layers) - 1; i >= 0; i-- {
		if l.layers[i].Kind == KindLot {
			idx = append(idx, i)
		}
	}
	return idx
}

// PendingURLs returns the distinct URLs of layers that have neither pixels
// nor a load error, in paint order.
func (l *List) PendingURLs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ly := range l.layers {
		if ly.URL == "" || ly.Loaded() || ly.LoadErr != nil || seen[ly.URL] {
			continue
		}
		seen[ly.URL] = true
		out = append(out, ly.URL)
	}
	return out
}

// ApplyImage attaches a finished load to every unloaded layer with the
// given URL and returns how many were updated. On failure the layers keep
// their geometry and record err.
func (l *List) ApplyImage(url string, img *gg.ImageBuf, err error) int {
	n := 0
	for _, ly := range l.layers {
		if ly.URL != url || ly.Loaded() {
			continue
		}
		if err != nil {
			ly.LoadErr = err
		} else {
			ly.SetImage(img)
		}
		n++
	}
	return n
}
