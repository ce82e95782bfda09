// Package probe measures whether candidate origins can serve a title
// and how fast, races the candidates concurrently, and ranks the
// outcome for the selection policy.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gohlsplaylist "github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
)

// Failure messages carried in ProbeResult.Error. The race coordinator
// and the HTTP API both surface these verbatim.
const (
	errNotFound       = "not found"
	errNoEpisodes     = "no episodes"
	errTimeout        = "timeout"
	errInvalidContent = "invalid content"
)

// maxManifestProbeBytes bounds how much playlist body the availability
// check will read for validation.
const maxManifestProbeBytes = 512 << 10

// Prober runs the search/detail/availability sequence against a single
// origin. It is stateless and safe for concurrent use.
type Prober struct {
	adapter     *origin.Adapter
	client      *httpclient.Client
	stepTimeout time.Duration
	logger      *slog.Logger
}

// NewProber creates a prober. stepTimeout bounds the availability check
// on its own, nested inside whatever deadline the caller's context
// carries.
func NewProber(adapter *origin.Adapter, client *httpclient.Client, stepTimeout time.Duration, logger *slog.Logger) *Prober {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		adapter:     adapter,
		client:      client,
		stepTimeout: stepTimeout,
		logger:      logger,
	}
}

// Probe checks one candidate for one title. Every failure mode is
// encoded in the returned result; Probe never panics and never returns
// an error.
func (p *Prober) Probe(ctx context.Context, title string, candidate models.OriginCandidate) models.ProbeResult {
	started := time.Now()

	hits, err := p.adapter.Search(ctx, &candidate, title)
	if err != nil {
		return p.failed(&candidate, started, err)
	}
	if len(hits) == 0 {
		return p.failed(&candidate, started, errors.New(errNotFound))
	}

	detail, err := p.adapter.Detail(ctx, &candidate, hits[0].ID)
	if err != nil {
		return p.failed(&candidate, started, err)
	}
	if !detail.HasEpisodes() || detail.FirstPlayable() == nil {
		return p.failed(&candidate, started, errors.New(errNoEpisodes))
	}

	playURL := detail.FirstPlayable().URL
	if err := p.checkAvailability(ctx, &candidate, playURL); err != nil {
		return p.failed(&candidate, started, err)
	}

	latency := time.Since(started)
	p.logger.Debug("probe succeeded",
		slog.String("origin", candidate.ID),
		slog.String("title", title),
		slog.Duration("latency", latency),
	)

	return models.ProbeResult{
		OriginID:      candidate.ID,
		OriginName:    candidate.Name,
		LatencyMillis: float64(latency) / float64(time.Millisecond),
		Available:     true,
		SampleDetail:  detail,
		ProbedAt:      started,
	}
}

// checkAvailability verifies the playback URL responds, bounded by the
// step timeout. Playlist URLs get their body validated; anything else
// gets a cheap range request.
func (p *Prober) checkAvailability(ctx context.Context, candidate *models.OriginCandidate, playURL string) error {
	stepCtx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()

	headers := candidate.Headers
	if candidate.UserAgent != "" {
		headers = make(map[string]string, len(candidate.Headers)+1)
		for k, v := range candidate.Headers {
			headers[k] = v
		}
		headers["User-Agent"] = candidate.UserAgent
	}

	if isPlaylistURL(playURL) {
		resp, err := p.client.Get(stepCtx, playURL, headers)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("availability check: status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestProbeBytes))
		if err != nil {
			return err
		}
		if _, err := gohlsplaylist.Unmarshal(body); err != nil {
			return errors.New(errInvalidContent)
		}
		return nil
	}

	resp, err := p.client.RangeGet(stepCtx, playURL, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4))

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusPartialContent:
		return nil
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// The resource exists, the origin just dislikes the range.
		return nil
	default:
		return fmt.Errorf("availability check: status %d", resp.StatusCode)
	}
}

func (p *Prober) failed(candidate *models.OriginCandidate, started time.Time, err error) models.ProbeResult {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = errTimeout
	}

	p.logger.Debug("probe failed",
		slog.String("origin", candidate.ID),
		slog.String("error", msg),
		slog.Duration("elapsed", time.Since(started)),
	)

	r := models.Unavailable(candidate, msg)
	r.ProbedAt = started
	return r
}

func isPlaylistURL(rawURL string) bool {
	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.HasSuffix(strings.ToLower(u), ".m3u8")
}
