package service

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/store"
)

func TestPatternServiceSeedAndEdit(t *testing.T) {
	svc, err := NewPatternService([]string{"/ads/", "doubleclick"}, nil, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"/ads/", "doubleclick"}, svc.List())

	require.NoError(t, svc.Add("/AdJump/"))
	assert.Contains(t, svc.List(), "/adjump/")

	require.NoError(t, svc.Add("/adjump/"), "duplicate add is a no-op")
	assert.Len(t, svc.List(), 3)

	require.NoError(t, svc.Remove("doubleclick"))
	assert.NotContains(t, svc.List(), "doubleclick")

	assert.ErrorIs(t, svc.Remove("doubleclick"), ErrPatternNotFound)
	assert.ErrorIs(t, svc.Add("   "), ErrPatternEmpty)
}

func TestPatternServicePersistsAcrossRestart(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	svc, err := NewPatternService([]string{"/ads/"}, st, slog.Default())
	require.NoError(t, err)
	require.NoError(t, svc.Add("sponsor"))
	require.NoError(t, svc.Remove("/ads/"))

	// A new service over the same store sees the edited list, not the
	// config seed.
	svc2, err := NewPatternService([]string{"/ads/"}, st, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"sponsor"}, svc2.List())
}

func TestPatternServiceClassifiesThroughSet(t *testing.T) {
	svc, err := NewPatternService([]string{"/ads/"}, nil, slog.Default())
	require.NoError(t, err)

	assert.True(t, svc.Set().Matches("https://cdn.example.com/ADS/break.ts"))
	assert.False(t, svc.Set().Matches("https://cdn.example.com/content/seg.ts"))
}
