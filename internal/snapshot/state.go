package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StateFile persists the timestamp of the last successful run so the
// scheduler can detect executions missed across restarts.
type StateFile struct {
	path string
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// LastRun returns the recorded timestamp. ok is false when no run has been
// recorded yet or the file is unreadable.
func (f *StateFile) LastRun() (t time.Time, ok bool) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return time.Time{}, false
	}
	t, err = time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Record stores t as the last successful run.
func (f *StateFile) Record(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(t.Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
