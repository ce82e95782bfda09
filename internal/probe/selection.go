package probe

import (
	"sort"

	"github.com/siftarr/siftarr/internal/models"
)

// DefaultSwitchThreshold is the minimum relative latency improvement
// before a switch away from the current origin is recommended.
const DefaultSwitchThreshold = 0.5

// Rank orders probe results for presentation: the current origin first
// when supplied, then available results ascending by latency, then
// unavailable results. The input is not mutated.
func Rank(results models.RankedResultSet, currentOriginID string) models.RankedResultSet {
	out := make(models.RankedResultSet, len(results))
	copy(out, results)

	sort.SliceStable(out, func(i, j int) bool {
		if currentOriginID != "" {
			if out[i].OriginID == currentOriginID {
				return out[j].OriginID != currentOriginID
			}
			if out[j].OriginID == currentOriginID {
				return false
			}
		}
		if out[i].Available != out[j].Available {
			return out[i].Available
		}
		return out[i].LatencyMillis < out[j].LatencyMillis
	})

	return out
}

// FindBest returns the fastest available result ignoring any pinned
// current origin. The second return is false when nothing is available.
func FindBest(results models.RankedResultSet) (models.ProbeResult, bool) {
	ranked := Rank(results, "")
	for _, r := range ranked {
		if r.Available {
			return r, true
		}
	}
	return models.ProbeResult{}, false
}

// RecommendSwitch decides whether the caller should move from current
// to best. An unavailable current origin always warrants a switch; an
// unavailable best never does. Otherwise best must beat current by more
// than the threshold fraction of current's latency.
func RecommendSwitch(current, best models.ProbeResult, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultSwitchThreshold
	}
	if !current.Available {
		return true
	}
	if !best.Available {
		return false
	}
	if current.LatencyMillis <= 0 {
		return false
	}
	return (current.LatencyMillis-best.LatencyMillis)/current.LatencyMillis > threshold
}
