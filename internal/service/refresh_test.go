package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresherNoTitlesIsIdle(t *testing.T) {
	f := newFakeOrigin(t, 0)
	svc := newRaceService(t, f.candidate("a", 1))

	r := NewRefresher(svc, "*/10 * * * *", nil, slog.Default())
	require.NoError(t, r.Start())
	r.Stop()
}

func TestRefresherRejectsBadSchedule(t *testing.T) {
	f := newFakeOrigin(t, 0)
	svc := newRaceService(t, f.candidate("a", 1))

	r := NewRefresher(svc, "not a schedule", []string{"Show"}, slog.Default())
	assert.Error(t, r.Start())
}

func TestRefresherRunOnceWarmsCache(t *testing.T) {
	f := newFakeOrigin(t, 0)
	svc := newRaceService(t, f.candidate("a", 1))

	r := NewRefresher(svc, "*/10 * * * *", []string{"Show"}, slog.Default())
	r.runOnce()

	assert.EqualValues(t, 1, f.searches.Load())

	out, err := svc.Race(context.Background(), "Show", "")
	require.NoError(t, err)
	assert.True(t, out.FromCache, "scheduled refresh pre-populated the cache")
}

func TestRefresherStartStopIdempotent(t *testing.T) {
	f := newFakeOrigin(t, 0)
	svc := newRaceService(t, f.candidate("a", 1))

	r := NewRefresher(svc, "*/10 * * * *", []string{"Show"}, slog.Default())
	require.NoError(t, r.Start())
	require.NoError(t, r.Start())
	r.Stop()
	r.Stop()
}
