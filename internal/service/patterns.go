package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siftarr/siftarr/internal/store"
	"github.com/siftarr/siftarr/pkg/hls"
)

// patternsKey is where the effective pattern list is persisted.
const patternsKey = "filter/patterns"

var (
	// ErrPatternNotFound is returned when removing a pattern that is
	// not in the set.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrPatternEmpty is returned when adding a blank pattern.
	ErrPatternEmpty = errors.New("pattern must not be empty")
)

// PatternService owns the runtime ad-pattern set. Config seeds it;
// runtime edits are persisted and win over config on the next start.
type PatternService struct {
	set    *hls.PatternSet
	store  *store.Store
	logger *slog.Logger
}

// NewPatternService creates the service with the config-seeded
// patterns, then overlays any persisted list. store may be nil.
func NewPatternService(seed []string, st *store.Store, logger *slog.Logger) (*PatternService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &PatternService{
		set:    hls.NewPatternSet(seed...),
		store:  st,
		logger: logger,
	}

	if st != nil {
		var persisted []string
		err := st.GetJSON(patternsKey, &persisted)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// First run, config seed stands.
		case err != nil:
			return nil, fmt.Errorf("loading persisted patterns: %w", err)
		default:
			s.set = hls.NewPatternSet(persisted...)
		}
	}

	return s, nil
}

// Set exposes the live pattern set for classification.
func (s *PatternService) Set() *hls.PatternSet { return s.set }

// List returns the current patterns, sorted.
func (s *PatternService) List() []string { return s.set.List() }

// Add inserts a pattern and persists the new list. Duplicates are
// no-ops that still succeed.
func (s *PatternService) Add(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return ErrPatternEmpty
	}
	if !s.set.Add(pattern) {
		return nil
	}

	if err := s.persist(); err != nil {
		return err
	}
	s.logger.Info("ad pattern added", slog.String("pattern", pattern))
	return nil
}

// Remove deletes a pattern by exact string and persists the new list.
func (s *PatternService) Remove(pattern string) error {
	if !s.set.Remove(pattern) {
		return fmt.Errorf("%w: %q", ErrPatternNotFound, pattern)
	}

	if err := s.persist(); err != nil {
		return err
	}
	s.logger.Info("ad pattern removed", slog.String("pattern", pattern))
	return nil
}

func (s *PatternService) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SetJSON(patternsKey, s.set.List()); err != nil {
		return fmt.Errorf("persisting patterns: %w", err)
	}
	return nil
}
