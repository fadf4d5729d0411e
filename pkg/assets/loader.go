// Package assets fetches and decodes the source images referenced by layers.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported is returned for image data no registered decoder accepts
	// and for URL schemes no loader handles.
	ErrUnsupported = errors.New("assets: unsupported image")

	// ErrStatus is returned when an HTTP fetch answers with a non-2xx status.
	ErrStatus = errors.New("assets: unexpected http status")
)

// Loader fetches and decodes one image.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// Decode reads an image in any registered format and returns it with the
// format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupported
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// FileLoader reads images from the local filesystem. Relative paths and
// file:// URLs with a relative path resolve against Root.
type FileLoader struct {
	Root string
}

func (f FileLoader) Load(ctx context.Context, raw string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(raw, "file://")
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", raw, err)
	}
	defer file.Close()

	img, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw, err)
	}
	return img, nil
}

// DefaultMaxBytes caps HTTP response bodies.
const DefaultMaxBytes = 64 << 20

// HTTPLoader fetches images over http and https.
type HTTPLoader struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPLoader returns a loader with a bounded client timeout.
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
	}
}

func (h *HTTPLoader) Load(ctx context.Context, raw string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, raw, resp.Status)
	}

	limit := h.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	img, _, err := Decode(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw, err)
	}
	return img, nil
}

// MultiLoader dispatches on the URL scheme. Paths without a scheme use the
// "file" entry.
type MultiLoader struct {
	Schemes map[string]Loader
}

// NewDefaultLoader serves file paths under root plus http and https.
func NewDefaultLoader(root string, timeout time.Duration) *MultiLoader {
	web := NewHTTPLoader(timeout)
	return &MultiLoader{Schemes: map[string]Loader{
		"file":  FileLoader{Root: root},
		"http":  web,
		"https": web,
	}}
}

func (m *MultiLoader) Load(ctx context.Context, raw string) (image.Image, error) {
	scheme := "file"
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		// Single-letter schemes are Windows drive letters.
		scheme = strings.ToLower(u.Scheme)
	}
	l, ok := m.Schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, scheme)
	}
	return l.Load(ctx, raw)
}
