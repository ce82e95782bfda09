package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/siftarr/siftarr/internal/service"
)

// RaceHandler serves origin racing requests.
type RaceHandler struct {
	races *service.RaceService
}

// NewRaceHandler creates a race handler.
func NewRaceHandler(races *service.RaceService) *RaceHandler {
	return &RaceHandler{races: races}
}

// RaceRequest is the race endpoint body.
type RaceRequest struct {
	Title           string `json:"title" minLength:"1" doc:"Title to resolve across origins"`
	CurrentOriginID string `json:"current_origin_id,omitempty" doc:"Origin currently playing, if any"`
}

// RaceInput is the input for the race endpoint.
type RaceInput struct {
	Body RaceRequest
}

// RaceOutput is the output for the race endpoint.
type RaceOutput struct {
	Body service.RaceOutcome
}

// RefreshInput is the input for the forced refresh endpoint.
type RefreshInput struct {
	Title string `path:"title" doc:"Title whose cached results to discard"`
}

// Register registers the race routes with the API.
func (h *RaceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "raceOrigins",
		Method:      "POST",
		Path:        "/api/race",
		Summary:     "Race origins for a title",
		Description: "Probes every enabled origin concurrently and returns the ranked results, the best origin, and a switch recommendation",
		Tags:        []string{"Racing"},
	}, h.Race)

	huma.Register(api, huma.Operation{
		OperationID: "refreshRace",
		Method:      "POST",
		Path:        "/api/race/{title}/refresh",
		Summary:     "Re-race a title, bypassing the cache",
		Tags:        []string{"Racing"},
	}, h.Refresh)
}

// Race resolves the ranked origin list for a title.
func (h *RaceHandler) Race(ctx context.Context, input *RaceInput) (*RaceOutput, error) {
	out, err := h.races.Race(ctx, input.Body.Title, input.Body.CurrentOriginID)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &RaceOutput{Body: *out}, nil
}

// Refresh discards cached results for a title and races again.
func (h *RaceHandler) Refresh(ctx context.Context, input *RefreshInput) (*RaceOutput, error) {
	out, err := h.races.Refresh(ctx, input.Title)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &RaceOutput{Body: *out}, nil
}
