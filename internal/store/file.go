package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	codeSuffix     = ".txt"
	originalSuffix = ".original.txt"
)

// File stores each component as <dir>/<id>.txt with its baseline in
// <dir>/<id>.original.txt.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the storage directory.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) codePath(id string) string     { return filepath.Join(f.dir, id+codeSuffix) }
func (f *File) originalPath(id string) string { return filepath.Join(f.dir, id+originalSuffix) }

func (f *File) Get(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(id)
}

func (f *File) read(id string) (Record, error) {
	data, err := os.ReadFile(f.codePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNotFound(id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read component: %w", err)
	}
	rec := Record{ID: id, Code: string(data)}
	if info, err := os.Stat(f.codePath(id)); err == nil {
		rec.UpdatedAt = info.ModTime()
	}

	orig, err := os.ReadFile(f.originalPath(id))
	switch {
	case err == nil:
		rec.OriginalCode = string(orig)
		rec.HasOriginal = true
	case !errors.Is(err, fs.ErrNotExist):
		return Record{}, fmt.Errorf("failed to read original: %w", err)
	}
	return rec, nil
}

func (f *File) Put(ctx context.Context, id, code string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeAtomic(f.codePath(id), code); err != nil {
		return Record{}, err
	}
	return f.read(id)
}

func (f *File) Create(ctx context.Context, id, code string) (Record, error) {
	id, err := createID(id)
	if err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// The original is write-once, even when its code file went missing.
	for _, p := range []string{f.codePath(id), f.originalPath(id)} {
		if _, err := os.Stat(p); err == nil {
			return Record{}, ErrExists(id)
		}
	}
	if err := writeAtomic(f.originalPath(id), code); err != nil {
		return Record{}, err
	}
	if err := writeAtomic(f.codePath(id), code); err != nil {
		return Record{}, err
	}
	return f.read(id)
}

func (f *File) Reset(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read(id)
	if err != nil {
		return Record{}, err
	}
	if !rec.HasOriginal {
		return Record{}, ErrNoOriginal(id)
	}
	if err := writeAtomic(f.codePath(id), rec.OriginalCode); err != nil {
		return Record{}, err
	}
	return f.read(id)
}

func (f *File) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, originalSuffix) || !strings.HasSuffix(name, codeSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, codeSuffix)
		if ValidateID(id) == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *File) Close() error { return nil }

// writeAtomic writes through a temp file and rename so readers never see a
// partial component.
func writeAtomic(path, data string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".retype-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write component: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write component: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save component: %w", err)
	}
	return nil
}
