package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// FileStore keeps one JSON file per project under a root directory.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the directory holding the project files.
func (f *FileStore) Root() string {
	return f.root
}

func (f *FileStore) path(project string) string {
	return filepath.Join(f.root, project+fileExt)
}

// Load reads the project's file.
func (f *FileStore) Load(ctx context.Context, project string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidProject(project); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(project))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return data, nil
}

// Save writes the blob to a temporary file and renames it over the
// project's file, so readers never see a partial write.
func (f *FileStore) Save(ctx context.Context, project string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidProject(project); err != nil {
		return err
	}

	file, err := os.CreateTemp(f.root, "."+project+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := file.Name()
	defer os.Remove(tmp)

	if _, err := file.Write(blob); err != nil {
		file.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := os.Rename(tmp, f.path(project)); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Projects lists the projects that have a file under the root.
func (f *FileStore) Projects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		project := strings.TrimSuffix(name, fileExt)
		if ValidProject(project) == nil {
			out = append(out, project)
		}
	}
	sort.Strings(out)
	return out, nil
}
