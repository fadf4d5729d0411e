// Package editor implements the map-editing session: placing the master
// image, adding and removing lots, and dragging lot corners.
//
// A Session is not safe for concurrent use. Image loads run in the
// background and come back through Results; the owning goroutine applies
// them with ImageLoaded.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/logging"
	"github.com/apps-seb/lotwarp/pkg/store"
	"github.com/apps-seb/lotwarp/pkg/warp"
)

var (
	// ErrNoMaster is returned when a lot is added before the master image.
	ErrNoMaster = errors.New("editor: no master image")

	// ErrMasterLoading is returned when a lot is added before the master's
	// size is known.
	ErrMasterLoading = errors.New("editor: master image has no size yet")

	// ErrEmptyCanvas is returned by Render while the master size is unknown.
	ErrEmptyCanvas = errors.New("editor: canvas has no size yet")
)

// State is the pointer state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// ImageRef is an image chosen by the user.
type ImageRef struct {
	URL     string
	MediaID string
}

type drag struct {
	layer  int
	corner int
	origin geo.Point
}

// Session edits one project's layer list.
type Session struct {
	list *layer.List

	images *assets.Queue

	store    store.Store
	project  string
	notifier Notifier
	log      *slog.Logger
	redraw   func()

	grid         int
	handleRadius float64
	scaleX       float64
	scaleY       float64

	selected int
	state    State
	drag     drag
}

// New returns a session holding an empty layer list.
func New(opts ...Option) *Session {
	s := &Session{
		list:         layer.NewList(),
		log:          logging.Discard(),
		grid:         warp.DefaultGrid,
		handleRadius: DefaultHandleRadius,
		scaleX:       1,
		scaleY:       1,
		selected:     -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.images == nil {
		s.images = assets.NewQueue(nil, 0)
	}
	return s
}

// Close stops background loads. Undelivered results are dropped.
func (s *Session) Close() { s.images.Close() }

// Results delivers finished image loads. It is nil without a loader.
func (s *Session) Results() <-chan assets.Result { return s.images.Results() }

// Pending returns the number of requested loads not yet applied.
func (s *Session) Pending() int { return s.images.Pending() }

// List returns the live layer list.
func (s *Session) List() *layer.List { return s.list }

// Selected returns the selected layer index, or -1.
func (s *Session) Selected() int { return s.selected }

// State returns the pointer state.
func (s *Session) State() State { return s.state }

// Load replaces the session's layers with the stored project. A missing
// project starts empty; a malformed one is logged and starts empty.
func (s *Session) Load(ctx context.Context) error {
	list := layer.NewList()
	if s.store != nil {
		blob, err := s.store.Load(ctx, s.project)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.log.Info("project not found, starting empty", "project", s.project)
		case err != nil:
			return fmt.Errorf("failed to load project %s: %w", s.project, err)
		default:
			decoded, rep, err := layer.Decode(blob)
			if err != nil {
				s.log.Warn("malformed layer list, starting empty", "project", s.project, "error", err)
			}
			if rep.Dropped > 0 || rep.Corrected > 0 || rep.Masters > 1 {
				s.log.Warn("layer list repaired",
					"project", s.project,
					"dropped", rep.Dropped,
					"corrected", rep.Corrected,
					"masters", rep.Masters)
			}
			list = decoded
		}
	}
	s.list = list
	s.selected = -1
	s.state = Idle
	s.images.Request(list.PendingURLs()...)
	s.log.Debug("project loaded", "project", s.project, "layers", list.Len())
	s.notifyRedraw()
	return nil
}

// SetMasterImage places ref as the master, replacing any existing one. The
// canvas takes the image's size once it loads.
func (s *Session) SetMasterImage(ctx context.Context, ref ImageRef) error {
	var w, h float64
	if old := s.list.Master(); old != nil {
		w, h = old.Size()
	}
	s.list.SetMaster(layer.NewMaster(ref.URL, ref.MediaID, w, h))
	s.images.Request(ref.URL)
	s.log.Info("master image set", "url", ref.URL, "media_id", ref.MediaID)
	s.notifyRedraw()
	return s.persist(ctx)
}

// AddLotLayer appends a lot over the middle of the canvas, selects it and
// returns its index. Without a master the user is warned and ErrNoMaster
// returned; while the master's size is still unknown, ErrMasterLoading.
func (s *Session) AddLotLayer(ctx context.Context, ref ImageRef) (int, error) {
	m := s.list.Master()
	if m == nil {
		s.warn("Please set a master image before adding lots.")
		return -1, ErrNoMaster
	}
	w, h := m.Size()
	if w <= 0 || h <= 0 {
		if m.LoadErr != nil {
			s.warn("The master image failed to load. Please choose another one before adding lots.")
		} else {
			s.warn("The master image is still loading. Please try again in a moment.")
		}
		return -1, ErrMasterLoading
	}
	lot, err := layer.NewLot(ref.URL, ref.MediaID, [4]geo.Point{}, layer.DefaultLotCorners(w, h))
	if err != nil {
		return -1, err
	}
	i := s.list.AppendLot(lot)
	s.selected = i
	s.images.Request(ref.URL)
	s.log.Info("lot added", "index", i, "url", ref.URL, "media_id", ref.MediaID)
	s.notifyRedraw()
	return i, s.persist(ctx)
}

// RemoveLayer deletes layer i and clears the selection.
func (s *Session) RemoveLayer(ctx context.Context, i int) error {
	removed, err := s.list.Remove(i)
	if err != nil {
		return err
	}
	s.selected = -1
	s.state = Idle
	s.log.Info("layer removed", "index", i, "kind", removed.Kind, "url", removed.URL)
	s.notifyRedraw()
	return s.persist(ctx)
}

// Select makes lot i the selected layer; -1 clears the selection.
func (s *Session) Select(i int) error {
	if i != -1 && (i < 0 || i >= s.list.Len()) {
		return fmt.Errorf("editor: layer index %d out of range", i)
	}
	if s.selected != i {
		s.selected = i
		s.notifyRedraw()
	}
	return nil
}

// SetDisplayScale sets how many display pixels one master pixel covers.
// Pointer coordinates are divided by it.
func (s *Session) SetDisplayScale(sx, sy float64) {
	if sx > 0 && !math.IsInf(sx, 0) {
		s.scaleX = sx
	}
	if sy > 0 && !math.IsInf(sy, 0) {
		s.scaleY = sy
	}
}

// ToMaster converts a display point to master pixel space.
func (s *Session) ToMaster(p geo.Point) geo.Point {
	return geo.Pt(p.X/s.scaleX, p.Y/s.scaleY)
}

// ImageLoaded applies a finished load to the layers that reference it.
func (s *Session) ImageLoaded(res assets.Result) {
	n, err := s.images.Apply(s.list, res)
	if err != nil {
		s.log.Warn("image failed to load", "url", res.URL, "layers", n, "error", err)
	} else {
		s.log.Debug("image loaded", "url", res.URL, "layers", n)
	}
	if n > 0 {
		s.notifyRedraw()
	}
}

// Await applies incoming loads until none are pending or ctx ends.
func (s *Session) Await(ctx context.Context) error {
	return s.images.Await(ctx, s.ImageLoaded)
}

// Snapshot returns the serialized layer list.
func (s *Session) Snapshot() ([]byte, error) {
	return layer.Marshal(s.list)
}

// Save persists the current layer list.
func (s *Session) Save(ctx context.Context) error {
	return s.persist(ctx)
}

func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	blob, err := layer.Marshal(s.list)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.project, blob); err != nil {
		s.log.Error("failed to save project", "project", s.project, "error", err)
		return fmt.Errorf("failed to save project %s: %w", s.project, err)
	}
	return nil
}

func (s *Session) warn(msg string) {
	s.log.Warn(msg)
	if s.notifier != nil {
		s.notifier.Warn(msg)
	}
}

func (s *Session) notifyRedraw() {
	if s.redraw != nil {
		s.redraw()
	}
}
