package view

import (
	"slices"
	"sync"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// ViewportStore keeps the last visible ranges the editor reported per document.
type ViewportStore struct {
	mu     sync.RWMutex
	ranges map[string][]outline.Range
}

func NewViewportStore() *ViewportStore {
	return &ViewportStore{ranges: make(map[string][]outline.Range)}
}

func (s *ViewportStore) Set(uri string, ranges []outline.Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges[uri] = slices.Clone(ranges)
}

// Get returns a copy of the ranges for uri. ok is false when the editor never
// reported a viewport for it.
func (s *ViewportStore) Get(uri string) ([]outline.Range, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ranges[uri]
	return slices.Clone(r), ok
}

func (s *ViewportStore) Forget(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ranges, uri)
}
