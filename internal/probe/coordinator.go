package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/siftarr/siftarr/internal/models"
)

// Coordinator races a prober across candidate origins under a shared
// deadline.
type Coordinator struct {
	prober   *Prober
	deadline time.Duration
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator with the given race deadline.
func NewCoordinator(prober *Prober, deadline time.Duration, logger *slog.Logger) *Coordinator {
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		prober:   prober,
		deadline: deadline,
		logger:   logger,
	}
}

type indexedResult struct {
	index  int
	result models.ProbeResult
}

// Race probes every candidate concurrently and returns one result per
// candidate, in candidate order. Probes still running at the deadline
// are force-resolved as timed out; their goroutines drain into the
// buffered channel and exit on their own.
func (c *Coordinator) Race(ctx context.Context, title string, candidates []models.OriginCandidate) models.RankedResultSet {
	if len(candidates) == 0 {
		return nil
	}

	raceCtx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	results := make(chan indexedResult, len(candidates))
	for i, candidate := range candidates {
		go func(i int, candidate models.OriginCandidate) {
			results <- indexedResult{index: i, result: c.prober.Probe(raceCtx, title, candidate)}
		}(i, candidate)
	}

	out := make(models.RankedResultSet, len(candidates))
	settled := make([]bool, len(candidates))
	pending := len(candidates)

	for pending > 0 {
		select {
		case r := <-results:
			out[r.index] = r.result
			settled[r.index] = true
			pending--
		case <-raceCtx.Done():
			c.settleAtDeadline(results, out, settled, candidates, title)
			return out
		}
	}

	return out
}

// settleAtDeadline resolves the remaining slots once the race deadline
// fires. Results buffered before the deadline still count; the select
// in Race picks ready cases at random, so the channel is drained before
// anything is stamped as timed out.
func (c *Coordinator) settleAtDeadline(results chan indexedResult, out models.RankedResultSet, settled []bool, candidates []models.OriginCandidate, title string) {
	for {
		select {
		case r := <-results:
			out[r.index] = r.result
			settled[r.index] = true
		default:
			for i := range candidates {
				if !settled[i] {
					out[i] = models.Unavailable(&candidates[i], errTimeout)
					c.logger.Warn("probe abandoned at deadline",
						slog.String("origin", candidates[i].ID),
						slog.String("title", title),
					)
				}
			}
			return
		}
	}
}
