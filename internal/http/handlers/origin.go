package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
)

// OriginHandler serves origin registry CRUD.
type OriginHandler struct {
	registry *origin.Registry
}

// NewOriginHandler creates an origin handler.
func NewOriginHandler(registry *origin.Registry) *OriginHandler {
	return &OriginHandler{registry: registry}
}

// ListOriginsInput is the input for listing origins.
type ListOriginsInput struct {
	EnabledOnly bool `query:"enabled" doc:"Return only enabled origins"`
}

// ListOriginsOutput is the output for listing origins.
type ListOriginsOutput struct {
	Body struct {
		Origins []models.OriginCandidate `json:"origins"`
	}
}

// GetOriginInput is the input for fetching one origin.
type GetOriginInput struct {
	ID string `path:"id"`
}

// GetOriginOutput is the output for fetching one origin.
type GetOriginOutput struct {
	Body models.OriginCandidate
}

// UpsertOriginInput is the input for creating or replacing an origin.
type UpsertOriginInput struct {
	Body models.OriginCandidate
}

// DeleteOriginInput is the input for removing an origin.
type DeleteOriginInput struct {
	ID string `path:"id"`
}

// DeleteOriginOutput is the output for removing an origin.
type DeleteOriginOutput struct {
	Body struct {
		Deleted string `json:"deleted"`
	}
}

// Register registers the origin routes with the API.
func (h *OriginHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listOrigins",
		Method:      "GET",
		Path:        "/api/origins",
		Summary:     "List origins",
		Tags:        []string{"Origins"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getOrigin",
		Method:      "GET",
		Path:        "/api/origins/{id}",
		Summary:     "Get an origin",
		Tags:        []string{"Origins"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "upsertOrigin",
		Method:      "PUT",
		Path:        "/api/origins",
		Summary:     "Create or replace an origin",
		Tags:        []string{"Origins"},
	}, h.Upsert)

	huma.Register(api, huma.Operation{
		OperationID: "deleteOrigin",
		Method:      "DELETE",
		Path:        "/api/origins/{id}",
		Summary:     "Delete an origin",
		Tags:        []string{"Origins"},
	}, h.Delete)
}

// List returns the registered origins sorted by priority.
func (h *OriginHandler) List(ctx context.Context, input *ListOriginsInput) (*ListOriginsOutput, error) {
	out := &ListOriginsOutput{}
	if input.EnabledOnly {
		out.Body.Origins = h.registry.Enabled()
	} else {
		out.Body.Origins = h.registry.All()
	}
	return out, nil
}

// Get returns one origin by id.
func (h *OriginHandler) Get(ctx context.Context, input *GetOriginInput) (*GetOriginOutput, error) {
	o, err := h.registry.Get(input.ID)
	if err != nil {
		if errors.Is(err, origin.ErrOriginNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, err
	}
	return &GetOriginOutput{Body: o}, nil
}

// Upsert creates or replaces an origin.
func (h *OriginHandler) Upsert(ctx context.Context, input *UpsertOriginInput) (*GetOriginOutput, error) {
	if err := h.registry.Upsert(input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	o, err := h.registry.Get(input.Body.ID)
	if err != nil {
		return nil, err
	}
	return &GetOriginOutput{Body: o}, nil
}

// Delete removes an origin.
func (h *OriginHandler) Delete(ctx context.Context, input *DeleteOriginInput) (*DeleteOriginOutput, error) {
	if err := h.registry.Remove(input.ID); err != nil {
		if errors.Is(err, origin.ErrOriginNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, err
	}
	out := &DeleteOriginOutput{}
	out.Body.Deleted = input.ID
	return out, nil
}
