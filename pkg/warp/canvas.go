package warp

import (
	"image"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

// sampleNudge keeps integer device coordinates from flooring into the
// previous source pixel after the inverse mapping.
const sampleNudge = 1e-6

// Canvas is a Target backed by a software gg drawing context.
type Canvas struct {
	dc *gg.Context
}

// NewCanvas allocates a transparent w×h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{dc: gg.NewContext(w, h)}
}

// Context exposes the underlying drawing context.
func (c *Canvas) Context() *gg.Context { return c.dc }

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.dc.Width() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.dc.Height() }

// Image returns the rendered pixels.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col gg.RGBA) {
	c.dc.ClearWithColor(col)
}

// FillTexturedTriangle fills dst with tex sampled through the inverse of m.
// The triangle path limits the fill exactly like a clip region would; only
// the pixels inside dst are touched.
func (c *Canvas) FillTexturedTriangle(tex *gg.ImageBuf, dst [3]geo.Point, m gg.Matrix) error {
	if tex == nil {
		return nil
	}
	w, h := tex.Bounds()
	if w == 0 || h == 0 {
		return nil
	}
	inv := m.Invert()

	brush := gg.NewCustomBrush(func(x, y float64) gg.RGBA {
		s := inv.TransformPoint(gg.Pt(x, y))
		px := clampInt(int(math.Floor(s.X+sampleNudge)), 0, w-1)
		py := clampInt(int(math.Floor(s.Y+sampleNudge)), 0, h-1)
		r, g, b, a := tex.GetRGBA(px, py)
		return gg.RGBA{
			R: float64(r) / 255,
			G: float64(g) / 255,
			B: float64(b) / 255,
			A: float64(a) / 255,
		}
	})

	c.dc.SetFillBrush(brush)
	c.dc.MoveTo(dst[0].X, dst[0].Y)
	c.dc.LineTo(dst[1].X, dst[1].Y)
	c.dc.LineTo(dst[2].X, dst[2].Y)
	c.dc.ClosePath()
	return c.dc.Fill()
}

// DrawImage blits tex unscaled with its top-left corner at (x, y).
func (c *Canvas) DrawImage(tex *gg.ImageBuf, x, y float64) {
	if tex == nil {
		return
	}
	c.dc.DrawImage(tex, x, y)
}

// FillQuad fills the quad q with a solid color.
func (c *Canvas) FillQuad(q [4]geo.Point, col gg.RGBA) error {
	if !geo.AllFinite(q[:]...) {
		return nil
	}
	c.quadPath(q)
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	return c.dc.Fill()
}

// StrokeQuad outlines the quad q.
func (c *Canvas) StrokeQuad(q [4]geo.Point, col gg.RGBA, width float64) error {
	if !geo.AllFinite(q[:]...) {
		return nil
	}
	c.quadPath(q)
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

// DrawHandle draws a filled circular corner handle of radius r at p.
func (c *Canvas) DrawHandle(p geo.Point, r float64, col gg.RGBA) error {
	if !p.Finite() {
		return nil
	}
	c.dc.DrawCircle(p.X, p.Y, r)
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	return c.dc.Fill()
}

// StrokeCircle outlines a circle of radius r at p.
func (c *Canvas) StrokeCircle(p geo.Point, r float64, col gg.RGBA, width float64) error {
	if !p.Finite() {
		return nil
	}
	c.dc.DrawCircle(p.X, p.Y, r)
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

// SavePNG writes the canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	return c.dc.SavePNG(path)
}

// Close releases the drawing context.
func (c *Canvas) Close() error {
	return c.dc.Close()
}

func (c *Canvas) quadPath(q [4]geo.Point) {
	c.dc.MoveTo(q[0].X, q[0].Y)
	for _, p := range q[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
