package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/store"
)

// preferencesKey is where the effective preferences are persisted.
const preferencesKey = "preferences"

// Episode sort orders.
const (
	EpisodeSortAsc  = "asc"
	EpisodeSortDesc = "desc"
)

// ErrInvalidSortOrder is returned when setting an unknown episode sort
// order.
var ErrInvalidSortOrder = errors.New("sort order must be asc or desc")

// Preferences are the persisted user preferences.
type Preferences struct {
	// EpisodeSort orders episodes in detail responses, "asc" or "desc".
	EpisodeSort string `json:"episode_sort"`
}

// DefaultPreferences returns the preferences used before any edit.
func DefaultPreferences() Preferences {
	return Preferences{EpisodeSort: EpisodeSortAsc}
}

// PreferenceService owns the runtime preferences. Defaults apply until
// an edit is persisted.
type PreferenceService struct {
	mu     sync.RWMutex
	prefs  Preferences
	store  *store.Store
	logger *slog.Logger
}

// NewPreferenceService loads persisted preferences, falling back to
// defaults on first run. store may be nil.
func NewPreferenceService(st *store.Store, logger *slog.Logger) (*PreferenceService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &PreferenceService{
		prefs:  DefaultPreferences(),
		store:  st,
		logger: logger,
	}

	if st != nil {
		var persisted Preferences
		err := st.GetJSON(preferencesKey, &persisted)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// First run, defaults stand.
		case err != nil:
			return nil, fmt.Errorf("loading preferences: %w", err)
		default:
			if persisted.EpisodeSort == "" {
				persisted.EpisodeSort = EpisodeSortAsc
			}
			s.prefs = persisted
		}
	}

	return s, nil
}

// Get returns the current preferences.
func (s *PreferenceService) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Set validates, applies, and persists new preferences.
func (s *PreferenceService) Set(p Preferences) error {
	if p.EpisodeSort != EpisodeSortAsc && p.EpisodeSort != EpisodeSortDesc {
		return fmt.Errorf("%w: %q", ErrInvalidSortOrder, p.EpisodeSort)
	}

	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SetJSON(preferencesKey, p); err != nil {
			return fmt.Errorf("persisting preferences: %w", err)
		}
	}
	s.logger.Info("preferences updated", slog.String("episode_sort", p.EpisodeSort))
	return nil
}

// ApplyEpisodeSort reorders the detail's episodes in place to match the
// preferred order. Adapters return episodes ascending.
func (s *PreferenceService) ApplyEpisodeSort(detail *models.VideoDetail) {
	if detail == nil || s.Get().EpisodeSort != EpisodeSortDesc {
		return
	}
	eps := detail.Episodes
	for i, j := 0, len(eps)-1; i < j; i, j = i+1, j-1 {
		eps[i], eps[j] = eps[j], eps[i]
	}
}
