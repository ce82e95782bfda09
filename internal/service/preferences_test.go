package service

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/store"
)

func TestPreferenceServiceDefaults(t *testing.T) {
	svc, err := NewPreferenceService(nil, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, EpisodeSortAsc, svc.Get().EpisodeSort)
}

func TestPreferenceServiceRejectsUnknownSortOrder(t *testing.T) {
	svc, err := NewPreferenceService(nil, slog.Default())
	require.NoError(t, err)

	err = svc.Set(Preferences{EpisodeSort: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
	assert.Equal(t, EpisodeSortAsc, svc.Get().EpisodeSort, "invalid set must not apply")
}

func TestPreferenceServicePersistsAcrossRestart(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	svc, err := NewPreferenceService(st, slog.Default())
	require.NoError(t, err)
	require.NoError(t, svc.Set(Preferences{EpisodeSort: EpisodeSortDesc}))

	svc2, err := NewPreferenceService(st, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, EpisodeSortDesc, svc2.Get().EpisodeSort)
}

func TestApplyEpisodeSort(t *testing.T) {
	detail := &models.VideoDetail{
		Episodes: []models.Episode{
			{Name: "1", URL: "http://o/1.m3u8"},
			{Name: "2", URL: "http://o/2.m3u8"},
			{Name: "3", URL: "http://o/3.m3u8"},
		},
	}

	svc, err := NewPreferenceService(nil, slog.Default())
	require.NoError(t, err)

	svc.ApplyEpisodeSort(detail)
	assert.Equal(t, "1", detail.Episodes[0].Name, "ascending leaves adapter order")

	require.NoError(t, svc.Set(Preferences{EpisodeSort: EpisodeSortDesc}))
	svc.ApplyEpisodeSort(detail)
	assert.Equal(t, "3", detail.Episodes[0].Name)
	assert.Equal(t, "1", detail.Episodes[2].Name)

	svc.ApplyEpisodeSort(nil)
}
