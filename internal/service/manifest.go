package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/pkg/hls"
)

// maxManifestBytes bounds how large an upstream playlist may be.
const maxManifestBytes = 8 << 20

// ManifestService fetches upstream playlists and serves them back with
// ad segments removed.
type ManifestService struct {
	client   *httpclient.Client
	registry *origin.Registry
	patterns *PatternService
	logger   *slog.Logger
}

// NewManifestService creates a manifest service.
func NewManifestService(client *httpclient.Client, registry *origin.Registry, patterns *PatternService, logger *slog.Logger) *ManifestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManifestService{
		client:   client,
		registry: registry,
		patterns: patterns,
		logger:   logger,
	}
}

// FilteredManifest is a fetched and cleaned playlist.
type FilteredManifest struct {
	// Body is the serialized playlist with ad segments removed.
	Body string

	// Removed is the number of segments dropped.
	Removed int
}

// Fetch retrieves a playlist, filters it, and returns the cleaned text.
// originID is optional; when set, that origin's headers accompany the
// upstream request.
func (s *ManifestService) Fetch(ctx context.Context, rawURL, originID string) (*FilteredManifest, error) {
	var headers map[string]string
	if originID != "" {
		o, err := s.registry.Get(originID)
		if err != nil {
			return nil, err
		}
		headers = make(map[string]string, len(o.Headers)+1)
		for k, v := range o.Headers {
			headers[k] = v
		}
		if o.UserAgent != "" {
			headers["User-Agent"] = o.UserAgent
		}
	}

	resp, err := s.client.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}

	return s.Filter(string(body), rawURL)
}

// Filter cleans already-fetched playlist text against the current
// pattern set.
func (s *ManifestService) Filter(text, baseURL string) (*FilteredManifest, error) {
	filtered, removed, err := hls.FilterText(text, baseURL, s.patterns.Set())
	if err != nil {
		return nil, err
	}

	if removed > 0 {
		s.logger.Info("ad segments removed",
			slog.String("url", baseURL),
			slog.Int("removed", removed),
		)
	}
	return &FilteredManifest{Body: filtered, Removed: removed}, nil
}
