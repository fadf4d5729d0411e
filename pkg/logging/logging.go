// Package logging builds the slog logger shared by the CLI, the sessions and
// the gg renderer.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// File is the rotated JSON log path. Empty disables file logging.
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int

	// Console receives text output; nil means os.Stderr.
	Console      io.Writer
	ConsoleLevel string
}

// multiHandler fans records out to a console and a file handler, each with
// its own level.
type multiHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.file.Enabled(ctx, r.Level) {
		if err := h.file.Handle(ctx, r); err != nil {
			return err
		}
	}
	if h.console.Enabled(ctx, r.Level) {
		if err := h.console.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &multiHandler{
		console: h.console.WithAttrs(attrs),
		file:    h.file.WithAttrs(attrs),
	}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	return &multiHandler{
		console: h.console.WithGroup(name),
		file:    h.file.WithGroup(name),
	}
}

// ParseLevel accepts debug, info, warn and error in any case. Empty means
// info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// Setup builds the logger, installs it as the slog default and as gg's
// logger, and returns a cleanup that closes the log file.
func Setup(opts Options) (*slog.Logger, func(), error) {
	consoleLevel, err := ParseLevel(opts.ConsoleLevel)
	if err != nil {
		return nil, nil, err
	}
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	console := slog.NewTextHandler(out, &slog.HandlerOptions{Level: consoleLevel})

	cleanup := func() {}
	var handler slog.Handler = console

	if opts.File != "" {
		fileLevel, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		// lumberjack handles log rotation
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		}
		handler = &multiHandler{
			console: console,
			file: slog.NewJSONHandler(lj, &slog.HandlerOptions{
				Level:     fileLevel,
				AddSource: true,
			}),
		}
		cleanup = func() {
			if err := lj.Close(); err != nil {
				slog.Error("Failed to close log file", "error", err)
			}
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	gg.SetLogger(logger)
	return logger, cleanup, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
