package models

import (
	"encoding/json"
	"math"
	"time"
)

// ProbeResult is the outcome of probing one origin for one title. It is
// created once per probe invocation and never mutated afterwards; a new
// probe produces a new result.
type ProbeResult struct {
	// OriginID identifies the probed origin.
	OriginID string `json:"origin_id"`

	// OriginName is the origin display name, carried for presentation.
	OriginName string `json:"origin_name"`

	// LatencyMillis is the wall-clock time of the full probe in
	// milliseconds. +Inf when the origin was unavailable.
	LatencyMillis float64 `json:"latency_ms"`

	// Available reports whether the origin can serve the title.
	Available bool `json:"available"`

	// Error carries the failure description when Available is false.
	Error string `json:"error,omitempty"`

	// SampleDetail is the detail record resolved during the probe, when
	// one was found.
	SampleDetail *VideoDetail `json:"sample_detail,omitempty"`

	// ProbedAt is when the probe started.
	ProbedAt time.Time `json:"probed_at"`
}

// Unavailable builds a failed result for an origin.
func Unavailable(origin *OriginCandidate, errMsg string) ProbeResult {
	return ProbeResult{
		OriginID:      origin.ID,
		OriginName:    origin.Name,
		LatencyMillis: math.Inf(1),
		Available:     false,
		Error:         errMsg,
		ProbedAt:      time.Now(),
	}
}

// MarshalJSON renders +Inf latency as null, which plain float64
// marshaling cannot represent.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	type alias ProbeResult
	out := struct {
		alias
		LatencyMillis *float64 `json:"latency_ms"`
	}{alias: alias(r)}
	if !math.IsInf(r.LatencyMillis, 1) {
		out.LatencyMillis = &r.LatencyMillis
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null latency as +Inf.
func (r *ProbeResult) UnmarshalJSON(data []byte) error {
	type alias ProbeResult
	aux := struct {
		*alias
		LatencyMillis *float64 `json:"latency_ms"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.LatencyMillis != nil {
		r.LatencyMillis = *aux.LatencyMillis
	} else {
		r.LatencyMillis = math.Inf(1)
	}
	return nil
}

// RankedResultSet is an ordered sequence of probe results, produced
// fresh per race.
type RankedResultSet []ProbeResult

// Available returns the subset of available results, preserving order.
func (s RankedResultSet) Available() RankedResultSet {
	out := make(RankedResultSet, 0, len(s))
	for _, r := range s {
		if r.Available {
			out = append(out, r)
		}
	}
	return out
}
