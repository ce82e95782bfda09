// Package origin manages the registry of third-party video origins and
// the adapters that normalize their heterogeneous APIs.
package origin

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/store"
)

// ErrOriginNotFound is returned when an origin id is unknown.
var ErrOriginNotFound = errors.New("origin not found")

const storeKeyPrefix = "origins/"

// Registry holds the configured origin candidates. Origins seeded from
// configuration can be edited at runtime through the API; edits are
// persisted through the store and win over config on the next start.
type Registry struct {
	mu      sync.RWMutex
	origins map[string]models.OriginCandidate
	store   *store.Store
	logger  *slog.Logger
}

// NewRegistry creates a registry seeded with the given candidates.
// store may be nil, in which case edits are kept in memory only.
func NewRegistry(seed []models.OriginCandidate, st *store.Store, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		origins: make(map[string]models.OriginCandidate, len(seed)),
		store:   st,
		logger:  logger,
	}

	for i := range seed {
		if err := seed[i].Validate(); err != nil {
			return nil, fmt.Errorf("seeding origin %q: %w", seed[i].ID, err)
		}
		r.origins[seed[i].ID] = seed[i]
	}

	if err := r.loadOverrides(); err != nil {
		return nil, err
	}

	return r, nil
}

// loadOverrides merges persisted origin records over the config seed.
func (r *Registry) loadOverrides() error {
	if r.store == nil {
		return nil
	}

	keys, err := r.store.ListKeys(storeKeyPrefix)
	if err != nil {
		return fmt.Errorf("listing persisted origins: %w", err)
	}

	for _, key := range keys {
		var o models.OriginCandidate
		if err := r.store.GetJSON(key, &o); err != nil {
			r.logger.Warn("skipping unreadable persisted origin",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := o.Validate(); err != nil {
			r.logger.Warn("skipping invalid persisted origin",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.origins[o.ID] = o
	}

	return nil
}

// Get returns the origin with the given id.
func (r *Registry) Get(id string) (models.OriginCandidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.origins[id]
	if !ok {
		return models.OriginCandidate{}, fmt.Errorf("%w: %s", ErrOriginNotFound, id)
	}
	return o, nil
}

// All returns every origin, enabled or not, sorted by priority
// descending then id.
func (r *Registry) All() []models.OriginCandidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.OriginCandidate, 0, len(r.origins))
	for _, o := range r.origins {
		out = append(out, o)
	}
	sortCandidates(out)
	return out
}

// Enabled returns the enabled origins sorted by priority descending
// then id. This is the candidate list a race runs over.
func (r *Registry) Enabled() []models.OriginCandidate {
	all := r.All()
	out := all[:0]
	for _, o := range all {
		if o.IsEnabled() {
			out = append(out, o)
		}
	}
	return out
}

// Upsert adds or replaces an origin and persists it.
func (r *Registry) Upsert(o models.OriginCandidate) error {
	if err := o.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.origins[o.ID] = o
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SetJSON(storeKeyPrefix+o.ID, o); err != nil {
			return fmt.Errorf("persisting origin %q: %w", o.ID, err)
		}
	}

	r.logger.Info("origin upserted",
		slog.String("id", o.ID),
		slog.String("name", o.Name),
		slog.Bool("enabled", o.IsEnabled()),
	)
	return nil
}

// Remove deletes an origin from the registry and the store.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	_, ok := r.origins[id]
	delete(r.origins, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrOriginNotFound, id)
	}

	if r.store != nil {
		if err := r.store.Delete(storeKeyPrefix + id); err != nil {
			return fmt.Errorf("removing persisted origin %q: %w", id, err)
		}
	}

	r.logger.Info("origin removed", slog.String("id", id))
	return nil
}

func sortCandidates(s []models.OriginCandidate) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Priority != s[j].Priority {
			return s[i].Priority > s[j].Priority
		}
		return strings.Compare(s[i].ID, s[j].ID) < 0
	})
}
