// Package store persists serialized layer lists keyed by project id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned by Load when nothing has been saved for a
	// project yet. Sessions treat it as an empty list.
	ErrNotFound = errors.New("store: project not found")

	// ErrProject is returned for project ids that cannot be used as keys.
	ErrProject = errors.New("store: invalid project id")
)

// Store loads and saves the layer blob of a project.
type Store interface {
	Load(ctx context.Context, project string) ([]byte, error)
	Save(ctx context.Context, project string, blob []byte) error
}

// Lister is implemented by stores that can enumerate their projects.
type Lister interface {
	Projects(ctx context.Context) ([]string, error)
}

// Open returns the store for driver ("file", "postgres" or "memory") and a
// function releasing it. dir is used by the file store, dsn by postgres.
func Open(ctx context.Context, driver, dir, dsn string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch driver {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "postgres":
		pg, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "file", "":
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

var projectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidProject checks that project is usable as a key in every store.
func ValidProject(project string) error {
	if len(project) > 128 || !projectPattern.MatchString(project) {
		return fmt.Errorf("%w: %q", ErrProject, project)
	}
	return nil
}

// MemoryStore keeps blobs in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, project string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidProject(project); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[project]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryStore) Save(ctx context.Context, project string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidProject(project); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[project] = append([]byte(nil), blob...)
	return nil
}

// Projects returns the saved project ids in sorted order.
func (m *MemoryStore) Projects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
