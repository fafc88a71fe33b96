// Package sources holds the in-tree Source implementations. Bank-specific
// collaborators register here at compile time; the file source below doubles
// as the development fixture.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
	"github.com/rodrigocabraln/bank-scraper/internal/scrape"
)

// FileSource serves a ready-made report from a JSON file on disk. It is used
// to exercise the full pipeline (orchestration, persistence, publishing)
// without driving a real bank portal.
type FileSource struct {
	id   string
	logo string
	path string
}

// NewFileSource builds a file-backed source. path points at a JSON document
// in the SourceResult shape ({"updated_at": ..., "accounts": [...]}).
func NewFileSource(id, logo, path string) *FileSource {
	return &FileSource{id: id, logo: logo, path: path}
}

func (s *FileSource) ID() string          { return s.id }
func (s *FileSource) DefaultLogo() string { return s.logo }

func (s *FileSource) Fetch(_ context.Context, _ *scrape.Env) (core.SourceResult, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return core.SourceResult{}, fmt.Errorf("read report file: %w", err)
	}
	var report core.SourceResult
	if err := json.Unmarshal(b, &report); err != nil {
		return core.SourceResult{}, fmt.Errorf("decode report file %s: %w", s.path, err)
	}
	return report, nil
}
