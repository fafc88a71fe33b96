// Package snapshot persists the aggregate snapshot and the scheduler's
// last-run marker on disk.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
)

// ErrNotYetAvailable is returned while no snapshot has ever been produced.
// Callers distinguish it from real I/O failures: the HTTP server turns it
// into "not yet available" rather than a permanent not-found.
var ErrNotYetAvailable = errors.New("snapshot not yet available")

// Store reads and writes the snapshot file. Writes go through a temp file in
// the same directory plus an atomic rename, so the concurrently reading HTTP
// server can never observe a partially written file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Save replaces the persisted snapshot wholesale.
func (s *Store) Save(snap core.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// Bytes returns the persisted snapshot verbatim, without re-encoding.
func (s *Store) Bytes() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotYetAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return data, nil
}

// Load decodes the persisted snapshot.
func (s *Store) Load() (core.Snapshot, error) {
	data, err := s.Bytes()
	if err != nil {
		return core.Snapshot{}, err
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	return snap, nil
}
