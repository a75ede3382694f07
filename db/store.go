package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCorrupt is returned by Load when the collection file exists but does not
// hold a JSON array of the expected records.
var ErrCorrupt = errors.New("collection file is corrupt")

// Store persists one whole collection. Load returns the full collection and
// Save replaces it. Check reports whether Load would succeed without
// changing anything on disk.
type Store[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
	Check(ctx context.Context) error
}

// FileStore keeps a collection as an indented JSON array in a single file.
type FileStore[T any] struct {
	path string
	perm os.FileMode
}

func NewFileStore[T any](path string) *FileStore[T] {
	return &FileStore[T]{path: path, perm: 0600}
}

func (fs *FileStore[T]) Path() string {
	return fs.path
}

// Load reads the collection. A missing or empty file is an empty collection.
// An unparsable file is moved aside to <path>.corrupt-<unix> so the next save
// does not destroy it, and ErrCorrupt is returned together with an empty slice.
func (fs *FileStore[T]) Load(ctx context.Context) ([]T, error) {
	items, err := fs.read(ctx)
	if !errors.Is(err, ErrCorrupt) {
		return items, err
	}

	quarantined := fmt.Sprintf("%s.corrupt-%d", fs.path, time.Now().Unix())
	if renameErr := os.Rename(fs.path, quarantined); renameErr != nil {
		return []T{}, fmt.Errorf("%w (quarantine failed: %v)", err, renameErr)
	}
	return []T{}, fmt.Errorf("%w, moved to %s", err, quarantined)
}

// Check parses the file like Load but leaves a corrupt file where it is
func (fs *FileStore[T]) Check(ctx context.Context) error {
	_, err := fs.read(ctx)
	return err
}

func (fs *FileStore[T]) read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fs.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return []T{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, fs.path, err)
	}
	if items == nil {
		// a literal "null"
		items = []T{}
	}

	return items, nil
}

// Save writes the collection to a temp file in the same directory, syncs it
// and renames it over the target.
func (fs *FileStore[T]) Save(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", fs.path, err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write %s: %w", tmpName, err))
	}
	if err := tmp.Chmod(fs.perm); err != nil {
		return cleanup(fmt.Errorf("chmod %s: %w", tmpName, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", fs.path, err)
	}

	return nil
}

// MemoryStore is an in-memory Store used by tests and ephemeral setups.
type MemoryStore[T any] struct {
	mu    sync.Mutex
	items []T

	// LoadErr and SaveErr, when set, are returned by the next calls.
	LoadErr error
	SaveErr error

	saves int
}

func NewMemoryStore[T any](items ...T) *MemoryStore[T] {
	return &MemoryStore[T]{items: append([]T{}, items...)}
}

func (ms *MemoryStore[T]) Load(ctx context.Context) ([]T, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.LoadErr != nil {
		if errors.Is(ms.LoadErr, ErrCorrupt) {
			return []T{}, ms.LoadErr
		}
		return nil, ms.LoadErr
	}
	return append([]T{}, ms.items...), nil
}

func (ms *MemoryStore[T]) Check(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.LoadErr
}

func (ms *MemoryStore[T]) Save(ctx context.Context, items []T) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.SaveErr != nil {
		return ms.SaveErr
	}
	ms.items = append([]T{}, items...)
	ms.saves++
	return nil
}

// Saves reports how many successful saves happened
func (ms *MemoryStore[T]) Saves() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.saves
}
