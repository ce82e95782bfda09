package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/siftarr/siftarr/internal/service"
)

// PatternHandler serves the ad pattern list.
type PatternHandler struct {
	patterns *service.PatternService
}

// NewPatternHandler creates a pattern handler.
func NewPatternHandler(patterns *service.PatternService) *PatternHandler {
	return &PatternHandler{patterns: patterns}
}

// PatternListOutput is the body listing the active patterns.
type PatternListOutput struct {
	Body struct {
		Patterns []string `json:"patterns"`
	}
}

// AddPatternInput is the input for adding a pattern.
type AddPatternInput struct {
	Body struct {
		Pattern string `json:"pattern" minLength:"1" doc:"Substring to classify as advertising"`
	}
}

// DeletePatternInput is the input for removing a pattern.
type DeletePatternInput struct {
	Pattern string `path:"pattern"`
}

// Register registers the pattern routes with the API.
func (h *PatternHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listPatterns",
		Method:      "GET",
		Path:        "/api/patterns",
		Summary:     "List ad patterns",
		Tags:        []string{"Patterns"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "addPattern",
		Method:      "POST",
		Path:        "/api/patterns",
		Summary:     "Add an ad pattern",
		Tags:        []string{"Patterns"},
	}, h.Add)

	huma.Register(api, huma.Operation{
		OperationID: "deletePattern",
		Method:      "DELETE",
		Path:        "/api/patterns/{pattern}",
		Summary:     "Remove an ad pattern",
		Tags:        []string{"Patterns"},
	}, h.Delete)
}

// List returns the active patterns, sorted.
func (h *PatternHandler) List(ctx context.Context, input *struct{}) (*PatternListOutput, error) {
	out := &PatternListOutput{}
	out.Body.Patterns = h.patterns.List()
	return out, nil
}

// Add inserts a pattern; duplicates succeed without change.
func (h *PatternHandler) Add(ctx context.Context, input *AddPatternInput) (*PatternListOutput, error) {
	if err := h.patterns.Add(input.Body.Pattern); err != nil {
		if errors.Is(err, service.ErrPatternEmpty) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}
	out := &PatternListOutput{}
	out.Body.Patterns = h.patterns.List()
	return out, nil
}

// Delete removes a pattern by exact string.
func (h *PatternHandler) Delete(ctx context.Context, input *DeletePatternInput) (*PatternListOutput, error) {
	if err := h.patterns.Remove(input.Pattern); err != nil {
		if errors.Is(err, service.ErrPatternNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, err
	}
	out := &PatternListOutput{}
	out.Body.Patterns = h.patterns.List()
	return out, nil
}
