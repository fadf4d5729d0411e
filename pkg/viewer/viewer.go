// Package viewer implements the read-only map view: it renders a stored
// layer list and reports which lot is under the pointer.
//
// A Session is not safe for concurrent use.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/logging"
	"github.com/apps-seb/lotwarp/pkg/rtree"
	"github.com/apps-seb/lotwarp/pkg/store"
	"github.com/apps-seb/lotwarp/pkg/warp"
)

// ErrNoMaster is returned by Render when there is nothing to draw on.
var ErrNoMaster = errors.New("viewer: no master image")

// TooltipOffset is added to the pointer position to place the tooltip.
var TooltipOffset = geo.Pt(12, 12)

// Event identifies the lot a click landed on.
type Event struct {
	Index   int
	URL     string
	MediaID string
	Point   geo.Point
}

// Tooltip is what the host should show next to the pointer.
type Tooltip struct {
	Visible bool
	Text    string
	Pos     geo.Point
}

// Option configures a Session.
type Option func(*Session)

// WithLoader enables background image loading.
func WithLoader(l assets.Loader, concurrency int) Option {
	return func(s *Session) { s.images = assets.NewQueue(l, concurrency) }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithGrid sets the warp grid size.
func WithGrid(n int) Option {
	return func(s *Session) { s.grid = n }
}

// WithOnSelect sets the callback fired by Click on a lot.
func WithOnSelect(fn func(Event)) Option {
	return func(s *Session) { s.onSelect = fn }
}

// WithRedraw sets the hook called whenever the picture changes.
func WithRedraw(fn func()) Option {
	return func(s *Session) { s.redraw = fn }
}

// Session is one read-only view of a layer list.
type Session struct {
	list  *layer.List
	index *rtree.QuadIndex

	images *assets.Queue

	log      *slog.Logger
	grid     int
	onSelect func(Event)
	redraw   func()

	scaleX, scaleY float64

	hovered int
	tooltip Tooltip
}

// New builds a session from a serialized layer list. A malformed blob is
// logged and yields an empty view.
func New(blob []byte, opts ...Option) *Session {
	s := &Session{
		index:   rtree.NewQuadIndex(),
		log:     logging.Discard(),
		grid:    warp.DefaultGrid,
		scaleX:  1,
		scaleY:  1,
		hovered: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.images == nil {
		s.images = assets.NewQueue(nil, 0)
	}

	list, rep, err := layer.Decode(blob)
	if err != nil {
		s.log.Warn("malformed layer list, showing nothing", "error", err)
	}
	if rep.Dropped > 0 || rep.Corrected > 0 {
		s.log.Warn("layer list repaired", "dropped", rep.Dropped, "corrected", rep.Corrected)
	}
	s.list = list
	s.reindex()
	s.images.Request(list.PendingURLs()...)
	return s
}

// Open loads project from st and builds a session for it. A missing
// project gives an empty view.
func Open(ctx context.Context, st store.Store, project string, opts ...Option) (*Session, error) {
	blob, err := st.Load(ctx, project)
	if errors.Is(err, store.ErrNotFound) {
		blob = []byte("[]")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", project, err)
	}
	return New(blob, opts...), nil
}

// Close stops background loads.
func (s *Session) Close() { s.images.Close() }

func (s *Session) reindex() {
	entries := make([]rtree.Entry, 0, s.list.Len())
	for _, i := range s.list.Lots() {
		entries = append(entries, rtree.Entry{ID: i, Quad: s.list.At(i).Dst})
	}
	if skipped := s.index.IndexQuads(entries); skipped > 0 {
		s.log.Warn("lots with non-finite corners are not hoverable", "count", skipped)
	}
}

// List returns the layer list.
func (s *Session) List() *layer.List { return s.list }

// Results delivers finished image loads. It is nil without a loader.
func (s *Session) Results() <-chan assets.Result { return s.images.Results() }

// Pending returns the number of requested loads not yet applied.
func (s *Session) Pending() int { return s.images.Pending() }

// ImageLoaded applies a finished load.
func (s *Session) ImageLoaded(res assets.Result) {
	n, err := s.images.Apply(s.list, res)
	if err != nil {
		s.log.Warn("image failed to load", "url", res.URL, "error", err)
	}
	if n > 0 {
		s.notifyRedraw()
	}
}

// Await applies incoming loads until none are pending or ctx ends.
func (s *Session) Await(ctx context.Context) error {
	return s.images.Await(ctx, s.ImageLoaded)
}

// SetDisplayScale sets how many display pixels one master pixel covers.
func (s *Session) SetDisplayScale(sx, sy float64) {
	if sx > 0 && !math.IsInf(sx, 0) {
		s.scaleX = sx
	}
	if sy > 0 && !math.IsInf(sy, 0) {
		s.scaleY = sy
	}
}

// HitTest returns the index of the topmost lot whose destination quad
// contains p in master pixels, or -1.
func (s *Session) HitTest(p geo.Point) int {
	for _, i := range s.index.Candidates(p) {
		if i < s.list.Len() && s.list.At(i).Contains(p) {
			return i
		}
	}
	return -1
}

// PointerMove updates hover and tooltip for a pointer at display point p
// and reports whether the hovered lot changed.
func (s *Session) PointerMove(p geo.Point) bool {
	hit := s.HitTest(geo.Pt(p.X/s.scaleX, p.Y/s.scaleY))
	changed := hit != s.hovered
	s.hovered = hit

	if hit < 0 {
		s.tooltip = Tooltip{}
	} else {
		s.tooltip = Tooltip{
			Visible: true,
			Text:    label(s.list.At(hit)),
			Pos:     p.Add(TooltipOffset),
		}
	}
	if changed {
		s.log.Debug("hover changed", "layer", hit)
		s.notifyRedraw()
	}
	return changed
}

// PointerLeave clears hover and tooltip when the pointer leaves the canvas.
func (s *Session) PointerLeave() {
	changed := s.hovered != -1
	s.hovered = -1
	s.tooltip = Tooltip{}
	if changed {
		s.notifyRedraw()
	}
}

// Click hit-tests display point p, fires OnSelect for a lot and returns its
// index.
func (s *Session) Click(p geo.Point) (int, bool) {
	s.PointerMove(p)
	if s.hovered < 0 {
		return -1, false
	}
	ly := s.list.At(s.hovered)
	if s.onSelect != nil {
		s.onSelect(Event{
			Index:   s.hovered,
			URL:     ly.URL,
			MediaID: ly.MediaID,
			Point:   geo.Pt(p.X/s.scaleX, p.Y/s.scaleY),
		})
	}
	return s.hovered, true
}

// Hovered returns the hovered lot index, or -1.
func (s *Session) Hovered() int { return s.hovered }

// Tooltip returns the current tooltip state.
func (s *Session) Tooltip() Tooltip { return s.tooltip }

func label(ly *layer.Layer) string {
	if ly.MediaID != "" {
		return "Lot " + ly.MediaID
	}
	if ly.URL != "" {
		return path.Base(ly.URL)
	}
	return "Lot"
}

func (s *Session) notifyRedraw() {
	if s.redraw != nil {
		s.redraw()
	}
}
