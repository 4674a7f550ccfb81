package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Provider is an interface for an artifact store.
// It persists generated response bytes under flat path keys and
// keeps no expiry state of its own; lifetimes are owned by the
// sitemap table referencing the keys.
//
// Implementations must be thread-safe!
type Provider interface {
	// Exists reports whether an artifact is stored under the given key.
	Exists(key string) bool
	// Read returns the stored artifact for the given key.
	// It returns ErrNotFound if no artifact is stored under the key.
	Read(key string) ([]byte, error)
	// Write stores the given artifact under the given key,
	// replacing any previous artifact for the same key.
	Write(key string, content []byte) error
	// Delete removes the artifact for the given key.
	// Deleting a key with no artifact is not an error.
	Delete(key string) error
	// Clear removes every stored artifact.
	Clear() error
}

// ErrNotFound is returned by Read when no artifact exists for a key.
var ErrNotFound = errors.New("artifact not found")

// FSStore stores each artifact as a single file directly under a root
// directory. Keys are fully flattened (path separators were replaced
// with the sentinel before they got here), so the file name is the key.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at dir, creating dir if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts dir: %w", err)
	}
	return &FSStore{root: dir}, nil
}

func (s *FSStore) path(key string) (string, error) {
	// flat keys never contain a separator, but "." and ".." would
	// resolve outside the root
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.root, key), nil
}

func (s *FSStore) Exists(key string) bool {
	path, err := s.path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (s *FSStore) Read(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %q: %w", key, err)
	}
	return content, nil
}

func (s *FSStore) Write(key string, content []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating artifacts dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing artifact %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting artifact %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Clear() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("clearing artifacts dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return fmt.Errorf("clearing artifacts dir: %w", err)
		}
	}
	return nil
}
