package editor

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/warp"
)

var (
	outlineColor = gg.RGBA{R: 0.1, G: 0.45, B: 0.95, A: 1}
	handleColor  = gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	activeColor  = gg.RGBA{R: 0.95, G: 0.35, B: 0.1, A: 1}
)

// Render draws the master, every loaded lot, and the selected lot's outline
// and corner handles at master resolution.
func (s *Session) Render() (*warp.Canvas, error) {
	m := s.list.Master()
	if m == nil {
		return nil, ErrNoMaster
	}
	w, h := m.Size()
	cw, ch := int(math.Ceil(w)), int(math.Ceil(h))
	if cw <= 0 || ch <= 0 {
		return nil, ErrEmptyCanvas
	}

	c := warp.NewCanvas(cw, ch)
	if m.Loaded() {
		c.DrawImage(m.Image, 0, 0)
	}

	r := warp.NewRenderer(s.grid)
	for _, i := range s.list.Lots() {
		lot := s.list.At(i)
		if !lot.Loaded() {
			continue
		}
		stats, err := r.DrawWarpedLayer(c, lot.Image, lot.Src, lot.Dst)
		if err != nil {
			c.Close()
			return nil, err
		}
		if stats.Singular || stats.Skipped > 0 {
			s.log.Debug("lot drawn partially", "layer", i,
				"drawn", stats.Drawn, "skipped", stats.Skipped, "singular", stats.Singular)
		}
	}

	if s.selected >= 0 && s.selected < s.list.Len() {
		sel := s.list.At(s.selected)
		if err := c.StrokeQuad(sel.Dst, outlineColor, 2); err != nil {
			c.Close()
			return nil, err
		}
		for corner, p := range sel.Dst {
			col := handleColor
			if s.state == Dragging && s.drag.layer == s.selected && s.drag.corner == corner {
				col = activeColor
			}
			if err := c.DrawHandle(p, s.handleRadius/2, col); err != nil {
				c.Close()
				return nil, err
			}
			if err := c.StrokeCircle(p, s.handleRadius/2, outlineColor, 1.5); err != nil {
				c.Close()
				return nil, err
			}
		}
	}
	return c, nil
}
