// Package service wires the registry, prober, cache, and filter into
// the operations the HTTP layer and the CLI expose.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/probe"
)

// RaceOutcome is what a race request resolves to.
type RaceOutcome struct {
	// Results is the full ranked result set, current origin first when
	// one was supplied.
	Results models.RankedResultSet `json:"results"`

	// Best is the fastest available origin, nil when every candidate
	// failed.
	Best *models.ProbeResult `json:"best,omitempty"`

	// SwitchRecommended is set when the caller supplied a current
	// origin and moving to Best is worth it.
	SwitchRecommended bool `json:"switch_recommended"`

	// FromCache reports whether the results were served without racing.
	FromCache bool `json:"from_cache"`
}

// RaceService answers "which origin should play this title" requests.
// Cached results short-circuit the race; concurrent requests for the
// same title collapse into a single race.
type RaceService struct {
	registry    *origin.Registry
	coordinator *probe.Coordinator
	cache       *probe.ResultCache
	group       singleflight.Group
	threshold   float64
	logger      *slog.Logger
}

// NewRaceService creates a race service.
func NewRaceService(registry *origin.Registry, coordinator *probe.Coordinator, cache *probe.ResultCache, threshold float64, logger *slog.Logger) *RaceService {
	if threshold <= 0 {
		threshold = probe.DefaultSwitchThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RaceService{
		registry:    registry,
		coordinator: coordinator,
		cache:       cache,
		threshold:   threshold,
		logger:      logger,
	}
}

// Race resolves the ranked origin list for a title. currentOriginID may
// be empty when the caller is not playing anything yet.
func (s *RaceService) Race(ctx context.Context, title, currentOriginID string) (*RaceOutcome, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	results, fromCache := s.cache.Get(title)
	if !fromCache {
		v, err, shared := s.group.Do(title, func() (any, error) {
			candidates := s.registry.Enabled()
			if len(candidates) == 0 {
				return nil, fmt.Errorf("no enabled origins")
			}
			raced := s.coordinator.Race(ctx, title, candidates)
			s.cache.Set(title, raced)
			return raced, nil
		})
		if err != nil {
			return nil, err
		}
		results = v.(models.RankedResultSet)
		if shared {
			s.logger.Debug("race collapsed into in-flight request", slog.String("title", title))
		}
	}

	return s.assemble(title, currentOriginID, results, fromCache), nil
}

// Refresh races a title unconditionally and replaces its cache entry.
func (s *RaceService) Refresh(ctx context.Context, title string) (*RaceOutcome, error) {
	s.cache.Invalidate(title)
	return s.Race(ctx, title, "")
}

func (s *RaceService) assemble(title, currentOriginID string, results models.RankedResultSet, fromCache bool) *RaceOutcome {
	ranked := probe.Rank(results, currentOriginID)
	out := &RaceOutcome{Results: ranked, FromCache: fromCache}

	best, ok := probe.FindBest(results)
	if !ok {
		s.logger.Warn("no origin available", slog.String("title", title))
		return out
	}
	out.Best = &best

	if currentOriginID != "" {
		current, found := findByOrigin(results, currentOriginID)
		if !found {
			// Unknown to this race, treat as unavailable.
			out.SwitchRecommended = true
		} else {
			out.SwitchRecommended = probe.RecommendSwitch(current, best, s.threshold)
		}
	}
	return out
}

func findByOrigin(results models.RankedResultSet, originID string) (models.ProbeResult, bool) {
	for _, r := range results {
		if r.OriginID == originID {
			return r, true
		}
	}
	return models.ProbeResult{}, false
}
