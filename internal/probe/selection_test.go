package probe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/models"
)

func available(id string, latency float64) models.ProbeResult {
	return models.ProbeResult{OriginID: id, OriginName: id, LatencyMillis: latency, Available: true}
}

func unavailable(id, errMsg string) models.ProbeResult {
	return models.ProbeResult{OriginID: id, OriginName: id, LatencyMillis: math.Inf(1), Error: errMsg}
}

func TestRankCurrentFirstThenLatencyThenUnavailable(t *testing.T) {
	results := models.RankedResultSet{
		available("A", 120),
		available("B", 80),
		unavailable("C", "timeout"),
	}

	ranked := Rank(results, "A")
	require.Len(t, ranked, 3)
	assert.Equal(t, "A", ranked[0].OriginID)
	assert.Equal(t, "B", ranked[1].OriginID)
	assert.Equal(t, "C", ranked[2].OriginID)
}

func TestRankWithoutCurrent(t *testing.T) {
	results := models.RankedResultSet{
		unavailable("C", "not found"),
		available("A", 120),
		available("B", 80),
	}

	ranked := Rank(results, "")
	assert.Equal(t, "B", ranked[0].OriginID)
	assert.Equal(t, "A", ranked[1].OriginID)
	assert.Equal(t, "C", ranked[2].OriginID)
}

func TestRankUnavailableCurrentStillFirst(t *testing.T) {
	results := models.RankedResultSet{
		available("B", 80),
		unavailable("A", "timeout"),
	}

	ranked := Rank(results, "A")
	assert.Equal(t, "A", ranked[0].OriginID)
	assert.Equal(t, "B", ranked[1].OriginID)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	results := models.RankedResultSet{
		available("A", 120),
		available("B", 80),
	}

	_ = Rank(results, "")
	assert.Equal(t, "A", results[0].OriginID)
}

func TestFindBest(t *testing.T) {
	results := models.RankedResultSet{
		available("A", 120),
		unavailable("C", "timeout"),
		available("B", 80),
	}

	best, ok := FindBest(results)
	require.True(t, ok)
	assert.Equal(t, "B", best.OriginID)
}

func TestFindBestAllUnavailable(t *testing.T) {
	results := models.RankedResultSet{
		unavailable("A", "timeout"),
		unavailable("B", "not found"),
	}

	_, ok := FindBest(results)
	assert.False(t, ok)
}

func TestRecommendSwitch(t *testing.T) {
	tests := []struct {
		name    string
		current models.ProbeResult
		best    models.ProbeResult
		want    bool
	}{
		{"current unavailable", unavailable("A", "timeout"), available("B", 100), true},
		{"best unavailable", available("A", 100), unavailable("B", "timeout"), false},
		{"large improvement", available("A", 300), available("B", 100), true},
		{"small improvement", available("A", 100), available("B", 80), false},
		{"exactly at threshold", available("A", 200), available("B", 100), false},
		{"equal latency", available("A", 100), available("B", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendSwitch(tt.current, tt.best, DefaultSwitchThreshold))
		})
	}
}
