// Package scrape coordinates the per-bank source collaborators and assembles
// their reports into one snapshot per run.
package scrape

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
)

// Source is implemented by each bank-specific collaborator. Implementations
// own their automation resources (browser session, HTTP client) and are
// invoked sequentially, never concurrently.
type Source interface {
	// ID is the stable identifier used as the snapshot key and in MQTT topics.
	ID() string
	// DefaultLogo names the logo asset applied to the source and to any
	// account that does not carry its own.
	DefaultLogo() string
	// Fetch performs one scrape and returns the report. ctx bounds the whole
	// attempt; env provides credential access.
	Fetch(ctx context.Context, env *Env) (core.SourceResult, error)
}

// Registry maps source ids to their implementations. It replaces the
// original runtime module lookup with an explicit table populated at
// startup.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source. Registering the same id twice is a programming
// error and returns an error rather than silently replacing.
func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[s.ID()]; exists {
		return fmt.Errorf("source %q already registered", s.ID())
	}
	r.sources[s.ID()] = s
	return nil
}

// Lookup returns the source registered under id, if any.
func (r *Registry) Lookup(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
