package viewer

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/warp"
)

var (
	tintColor    = gg.RGBA{R: 1, G: 0.84, B: 0, A: 0.35}
	outlineColor = gg.RGBA{R: 1, G: 0.6, B: 0, A: 1}
)

// Render draws the master and every loaded lot, with the hovered lot
// tinted and outlined.
func (s *Session) Render() (*warp.Canvas, error) {
	return s.RenderHighlight(s.hovered)
}

// RenderHighlight is Render with lot i highlighted instead of the hovered
// one; -1 highlights nothing.
func (s *Session) RenderHighlight(i int) (*warp.Canvas, error) {
	m := s.list.Master()
	if m == nil {
		return nil, ErrNoMaster
	}
	w, h := m.Size()
	cw, ch := int(math.Ceil(w)), int(math.Ceil(h))
	if cw <= 0 || ch <= 0 {
		return nil, ErrNoMaster
	}

	c := warp.NewCanvas(cw, ch)
	if m.Loaded() {
		c.DrawImage(m.Image, 0, 0)
	}
	r := warp.NewRenderer(s.grid)
	for _, li := range s.list.Lots() {
		lot := s.list.At(li)
		if !lot.Loaded() {
			continue
		}
		if _, err := r.DrawWarpedLayer(c, lot.Image, lot.Src, lot.Dst); err != nil {
			c.Close()
			return nil, err
		}
	}

	if i >= 0 && i < s.list.Len() {
		q := s.list.At(i).Dst
		if err := c.FillQuad(q, tintColor); err != nil {
			c.Close()
			return nil, err
		}
		if err := c.StrokeQuad(q, outlineColor, 2); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}
