package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore keeps artifacts in a sqlite database instead of loose
// files. Useful when the artifacts dir should be a single portable file.
type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteStore creates a new store with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteStore(filename string) (*SQLiteStore, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("opening artifact db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		key TEXT PRIMARY KEY,
		content BLOB,
		created_at INTEGER
	)`)
	if err != nil {
		return nil, fmt.Errorf("creating artifacts table: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	return &SQLiteStore{
		db:         db,
		writeMutex: &sync.Mutex{},
	}, nil
}

func (s *SQLiteStore) Exists(key string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM artifacts WHERE key = ?", key).Scan(&one)
	return err == nil
}

func (s *SQLiteStore) Read(key string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRow("SELECT content FROM artifacts WHERE key = ?", key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %q: %w", key, err)
	}
	return content, nil
}

func (s *SQLiteStore) Write(key string, content []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO artifacts (key, content, created_at) VALUES (?, ?, ?)",
		key, content, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing artifact %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec("DELETE FROM artifacts WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting artifact %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec("DELETE FROM artifacts"); err != nil {
		return fmt.Errorf("clearing artifacts: %w", err)
	}
	return nil
}
