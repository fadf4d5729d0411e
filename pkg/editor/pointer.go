package editor

import (
	"context"
	"errors"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
)

// PointerDown grabs the lot corner within the handle radius of p, given in
// display coordinates. The selected lot is tried first, then the others
// topmost first. Without a corner hit, the topmost lot under the pointer
// becomes selected. It reports whether a drag started.
func (s *Session) PointerDown(p geo.Point) bool {
	if s.state == Dragging {
		return false
	}
	m := s.ToMaster(p)

	for _, i := range s.grabOrder() {
		corner, ok := s.nearestCorner(s.list.At(i), m)
		if !ok {
			continue
		}
		s.selected = i
		s.state = Dragging
		s.drag = drag{layer: i, corner: corner, origin: s.list.At(i).Dst[corner]}
		s.log.Debug("drag started", "layer", i, "corner", corner)
		s.notifyRedraw()
		return true
	}

	hit := -1
	for _, i := range s.list.LotsTopmostFirst() {
		if s.list.At(i).Contains(m) {
			hit = i
			break
		}
	}
	if hit != s.selected {
		s.selected = hit
		s.notifyRedraw()
	}
	return false
}

// PointerMove moves the grabbed corner to p. Moves that would make the quad
// cross itself are ignored and the corner stays at its last valid spot. It
// reports whether the quad changed.
func (s *Session) PointerMove(p geo.Point) bool {
	if s.state != Dragging {
		return false
	}
	lot := s.list.At(s.drag.layer)
	err := lot.MoveCorner(s.drag.corner, s.ToMaster(p))
	if errors.Is(err, layer.ErrBowtie) || errors.Is(err, layer.ErrNonFinite) {
		return false
	}
	if err != nil {
		s.log.Warn("corner move failed", "layer", s.drag.layer, "error", err)
		return false
	}
	s.notifyRedraw()
	return true
}

// PointerUp ends a drag and persists the new corners.
func (s *Session) PointerUp(ctx context.Context) error {
	if s.state != Dragging {
		return nil
	}
	s.state = Idle
	lot := s.list.At(s.drag.layer)
	s.log.Debug("drag finished", "layer", s.drag.layer, "corner", s.drag.corner,
		"x", lot.Dst[s.drag.corner].X, "y", lot.Dst[s.drag.corner].Y)
	return s.persist(ctx)
}

// PointerCancel aborts a drag and puts the corner back where it started.
func (s *Session) PointerCancel() {
	if s.state != Dragging {
		return
	}
	s.state = Idle
	lot := s.list.At(s.drag.layer)
	if err := lot.MoveCorner(s.drag.corner, s.drag.origin); err != nil {
		s.log.Warn("failed to restore corner", "layer", s.drag.layer, "error", err)
	}
	s.notifyRedraw()
}

// NudgeCorner moves corner c of lot i by d master pixels and persists the
// result.
func (s *Session) NudgeCorner(ctx context.Context, i, c int, d geo.Point) error {
	if c < 0 || c > 3 {
		return layer.ErrCorner
	}
	if i < 0 || i >= s.list.Len() {
		return layer.ErrNotLot
	}
	return s.MoveCorner(ctx, i, c, s.list.At(i).Dst[c].Add(d))
}

// MoveCorner sets corner c of lot i to p in master pixels and persists
// the result.
func (s *Session) MoveCorner(ctx context.Context, i, c int, p geo.Point) error {
	if i < 0 || i >= s.list.Len() {
		return layer.ErrNotLot
	}
	if err := s.list.At(i).MoveCorner(c, p); err != nil {
		return err
	}
	s.notifyRedraw()
	return s.persist(ctx)
}

func (s *Session) grabOrder() []int {
	order := make([]int, 0, s.list.Len())
	if s.selected >= 0 && s.selected < s.list.Len() && s.list.At(s.selected).Kind == layer.KindLot {
		order = append(order, s.selected)
	}
	for _, i := range s.list.LotsTopmostFirst() {
		if i != s.selected {
			order = append(order, i)
		}
	}
	return order
}

// nearestCorner returns the closest corner of lot within the handle radius.
func (s *Session) nearestCorner(lot *layer.Layer, p geo.Point) (int, bool) {
	best, bestDist := -1, s.handleRadius
	for c, q := range lot.Dst {
		if d := q.Distance(p); d <= bestDist {
			best, bestDist = c, d
		}
	}
	return best, best >= 0
}
