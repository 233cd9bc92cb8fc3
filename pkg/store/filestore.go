// Package store provides the file-mirrored keyed record table shared by the
// analysis task service and the daily review cache. Records live in memory
// under a single lock; every mutation rewrites one JSON document on disk.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore persists a whole keyed collection of records as one indented
// JSON document. It is a serialization boundary only; ownership of the data
// stays with the table that wraps it.
type FileStore[R any] struct {
	path string
}

func NewFileStore[R any](path string) *FileStore[R] {
	return &FileStore[R]{path: path}
}

func (s *FileStore[R]) Path() string {
	return s.path
}

// Load reads the full collection. A missing file is an empty collection, not
// an error.
func (s *FileStore[R]) Load() (map[string]R, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]R{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	records := map[string]R{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.path)
	}
	return records, nil
}

// Save rewrites the full collection. The document is written to a temp file
// and renamed into place so a crash mid-write never corrupts the previous
// durable state.
func (s *FileStore[R]) Save(records map[string]R) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", s.path)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}
