// Package file is a Store kept as JSON documents in a local directory.
//
// Each log lives in <dir>/<key>.log.json as a JSON array, newest entry
// first; each value in <dir>/<key>.json. Every write goes to a temporary
// file that is renamed over the target, so readers never observe a partial
// document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is safe for concurrent use within one process.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Append(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("appending to %s: payload is not JSON", key)
	}
	path, err := s.path(key, ".log.json")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readLog(path)
	if err != nil {
		return err
	}
	entries = append([]json.RawMessage{value}, entries...)
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return writeAtomic(path, b)
}

func (s *Store) ListAll(_ context.Context, key string) ([][]byte, error) {
	path, err := s.path(key, ".log.json")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entries, err := readLog(path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key, ".json")
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	path, err := s.path(key, ".json")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(path, value)
}

// Ping checks that the directory is still there.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) path(key, suffix string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+suffix), nil
}

func readLog(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decoding log %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
