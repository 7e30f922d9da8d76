// Package artifact persists the trained model bundle as one opaque JSON
// document. The classifier, scaler, and codebooks always travel together:
// saving or loading them piecemeal could pair a new classifier with old
// codebooks.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/ctrd/internal/domain/classifier"
)

const bundleFileMode = 0o644

// Store reads and writes model bundles at a fixed filesystem path.
type Store struct {
	path string
}

// NewStore creates a Store persisting bundles at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the bundle location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the bundle atomically: the document is written to a temp file
// in the same directory and renamed over the target, so a crash mid-write
// never leaves a corrupt artifact behind.
func (s *Store) Save(b *classifier.Bundle) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmpName, bundleFileMode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// Load reads the bundle from disk. It returns ErrNotFound when no artifact
// has been saved yet; any other failure is a hard persistence error.
func (s *Store) Load() (*classifier.Bundle, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var b classifier.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &b, nil
}
