// Package persist provides whole-file JSON array document stores for the
// coordinator's durable collections (schedules, history, subscriptions).
//
// A missing file is an empty collection; a file that exists but cannot be
// parsed is an error, not a silent truncation. Saves go through a temp
// file and rename so a reader never observes a partial document.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrCorrupt reports a document file that exists but cannot be parsed.
var ErrCorrupt = errors.New("corrupt document")

// Document is a whole-file JSON array store for records of type T. All
// operations serialize on the store's mutex, so two concurrent appenders
// cannot both load the same stale array and lose an entry.
type Document[T any] struct {
	mu   sync.Mutex
	path string
}

// NewDocument creates a store backed by the given file path. The file is
// not created until the first save.
func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

// Load returns the full record sequence.
func (d *Document[T]) Load() ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// Save replaces the full record sequence on disk.
func (d *Document[T]) Save(records []T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save(records)
}

// Update runs a load-modify-save cycle under the store's lock. fn
// receives the current records and returns the sequence to persist.
func (d *Document[T]) Update(fn func(records []T) []T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.load()
	if err != nil {
		return err
	}
	return d.save(fn(records))
}

func (d *Document[T]) load() ([]T, error) {
	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, d.path, err)
	}
	return records, nil
}

// save writes the sequence to a sibling temp file, syncs it, and renames
// it over the target.
func (d *Document[T]) save(records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", d.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
