package hls

import (
	"sort"
	"strings"
	"sync"
)

// PatternSet is a mutable set of lower-cased substrings used to classify
// segment URIs as advertising. It is safe for concurrent use: the API
// surface mutates it while playlist filtering reads it.
type PatternSet struct {
	mu       sync.RWMutex
	patterns map[string]struct{}
}

// NewPatternSet creates a PatternSet seeded with the given patterns.
func NewPatternSet(patterns ...string) *PatternSet {
	s := &PatternSet{patterns: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		s.Add(p)
	}
	return s
}

// Add inserts a pattern. Patterns are stored lower-cased; adding a
// duplicate or an empty string is a no-op. Returns true if the set
// changed.
func (s *PatternSet) Add(pattern string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if p == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patterns[p]; ok {
		return false
	}
	s.patterns[p] = struct{}{}
	return true
}

// Remove deletes a pattern by exact string. Returns true if it was
// present.
func (s *PatternSet) Remove(pattern string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patterns[p]; !ok {
		return false
	}
	delete(s.patterns, p)
	return true
}

// List returns the patterns in sorted order.
func (s *PatternSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.patterns))
	for p := range s.patterns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of patterns.
func (s *PatternSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns)
}

// Matches reports whether any pattern is a case-insensitive substring of
// uri, short-circuiting on the first hit.
func (s *PatternSet) Matches(uri string) bool {
	lower := strings.ToLower(uri)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := range s.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
