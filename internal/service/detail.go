package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
)

// ErrTitleNotFound is returned when an origin has no record for a title.
var ErrTitleNotFound = errors.New("title not found on origin")

// DetailService resolves a title's episode list through one origin,
// ordered per the stored preferences.
type DetailService struct {
	registry *origin.Registry
	adapter  *origin.Adapter
	prefs    *PreferenceService
	logger   *slog.Logger
}

// NewDetailService creates a detail service.
func NewDetailService(registry *origin.Registry, adapter *origin.Adapter, prefs *PreferenceService, logger *slog.Logger) *DetailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailService{
		registry: registry,
		adapter:  adapter,
		prefs:    prefs,
		logger:   logger,
	}
}

// Lookup searches the origin for the title, fetches the first hit's
// detail record, and applies the preferred episode order.
func (s *DetailService) Lookup(ctx context.Context, originID, title string) (*models.VideoDetail, error) {
	o, err := s.registry.Get(originID)
	if err != nil {
		return nil, err
	}

	hits, err := s.adapter.Search(ctx, &o, title)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", originID, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %q on %s", ErrTitleNotFound, title, originID)
	}

	detail, err := s.adapter.Detail(ctx, &o, hits[0].ID)
	if err != nil {
		return nil, fmt.Errorf("fetching detail from %s: %w", originID, err)
	}

	s.prefs.ApplyEpisodeSort(detail)
	s.logger.Debug("detail resolved",
		slog.String("origin", originID),
		slog.String("title", title),
		slog.Int("episodes", len(detail.Episodes)))
	return detail, nil
}
