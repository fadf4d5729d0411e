package editor

import (
	"log/slog"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/store"
)

// DefaultHandleRadius is the corner grab distance in master pixels.
const DefaultHandleRadius = 10.0

// Notifier shows blocking messages to the person editing.
type Notifier interface {
	Warn(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Warn(msg string) { f(msg) }

// Option configures a Session.
type Option func(*Session)

// WithLoader enables background image loading with at most concurrency
// loads in flight.
func WithLoader(l assets.Loader, concurrency int) Option {
	return func(s *Session) {
		s.images = assets.NewQueue(l, concurrency)
	}
}

// WithStore persists the layer list of project in st after every change.
func WithStore(st store.Store, project string) Option {
	return func(s *Session) {
		s.store = st
		s.project = project
	}
}

// WithNotifier sets where user-facing warnings go. Without one they are
// only logged.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithGrid sets the warp grid size.
func WithGrid(n int) Option {
	return func(s *Session) { s.grid = n }
}

// WithHandleRadius sets the corner grab distance in master pixels.
func WithHandleRadius(r float64) Option {
	return func(s *Session) {
		if r > 0 {
			s.handleRadius = r
		}
	}
}

// WithRedraw sets the hook called whenever the picture changes.
func WithRedraw(fn func()) Option {
	return func(s *Session) { s.redraw = fn }
}
