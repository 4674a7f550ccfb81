package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStores(t *testing.T) map[string]Provider {
	t.Helper()
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dbFile := filepath.Join(t.TempDir(), "artifacts.db")
	sqlite, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Provider{"fs": fs, "sqlite": sqlite}
}

func TestRoundTrip(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			content := []byte("HTTP/1.1 200 OK\r\n\r\n<html>hi</html>")
			if err := s.Write("about|team", content); err != nil {
				t.Fatal(err)
			}
			got, err := s.Read("about|team")
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, content) {
				t.Fatalf("Read back %q", got)
			}
		})
	}
}

func TestReadMissingKey(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Read("nope"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Read of missing key returned %v", err)
			}
			if s.Exists("nope") {
				t.Fatal("Exists is true for missing key")
			}
		})
	}
}

func TestExistsAfterWrite(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Write("page", []byte("x")); err != nil {
				t.Fatal(err)
			}
			if !s.Exists("page") {
				t.Fatal("Exists is false after write")
			}
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Write("page", []byte("x")); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete("page"); err != nil {
				t.Fatal(err)
			}
			if s.Exists("page") {
				t.Fatal("Exists is true after delete")
			}
			// deleting again is a no-op
			if err := s.Delete("page"); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestClearRemovesEverything(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"a", "b", "c|d"} {
				if err := s.Write(key, []byte(key)); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Clear(); err != nil {
				t.Fatal(err)
			}
			for _, key := range []string{"a", "b", "c|d"} {
				if s.Exists(key) {
					t.Fatalf("Key %q survived clear", key)
				}
			}
		})
	}
}

func TestFSReadDirectoryIsNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("subdir"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read of directory returned %v", err)
	}
	if s.Exists("subdir") {
		t.Fatal("Exists is true for a directory")
	}
}

func TestFSRejectsTraversalKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", ".", ".."} {
		if err := s.Write(key, []byte("x")); err == nil {
			t.Fatalf("Write accepted key %q", key)
		}
	}
}
