package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/siftarr/siftarr/internal/observability"
)

// Refresher keeps race results for pinned titles warm by re-racing them
// on a cron schedule, so playback-time requests hit the cache.
type Refresher struct {
	races    *RaceService
	schedule string
	titles   []string
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRefresher creates a refresher. titles is the pinned title list
// from configuration.
func NewRefresher(races *RaceService, schedule string, titles []string, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		races:    races,
		schedule: schedule,
		titles:   titles,
		logger:   logger,
	}
}

// Start begins the scheduled refreshes. It is a no-op when no titles
// are pinned.
func (r *Refresher) Start() error {
	if len(r.titles) == 0 {
		r.logger.Debug("no pinned titles, refresh scheduler idle")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.runOnce); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c

	r.logger.Info("refresh scheduler started",
		slog.String("schedule", r.schedule),
		slog.Int("titles", len(r.titles)),
	)
	return nil
}

// Stop halts the scheduler, waiting for any in-flight refresh.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		r.logger.Info("refresh scheduler stopped")
	}
}

func (r *Refresher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	defer observability.TimedOperation(ctx, r.logger, "scheduled-refresh")()
	logger := observability.WithOperation(r.logger, "scheduled-refresh")

	for _, title := range r.titles {
		if _, err := r.races.Refresh(ctx, title); err != nil {
			logger.Warn("scheduled refresh failed",
				slog.String("title", title),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Debug("race results refreshed", slog.String("title", title))
	}
}
