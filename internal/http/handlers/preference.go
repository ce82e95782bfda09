package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/service"
)

// PreferenceHandler serves user preferences and the preference-aware
// detail lookup.
type PreferenceHandler struct {
	prefs   *service.PreferenceService
	details *service.DetailService
}

// NewPreferenceHandler creates a preference handler.
func NewPreferenceHandler(prefs *service.PreferenceService, details *service.DetailService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, details: details}
}

// PreferencesOutput is the body carrying the active preferences.
type PreferencesOutput struct {
	Body service.Preferences
}

// PutPreferencesInput is the input for replacing the preferences.
type PutPreferencesInput struct {
	Body service.Preferences
}

// DetailInput identifies a title to resolve on one origin.
type DetailInput struct {
	Origin string `path:"origin"`
	Title  string `query:"title" required:"true" doc:"Title to search for"`
}

// DetailOutput is the body carrying a resolved detail record.
type DetailOutput struct {
	Body models.VideoDetail
}

// Register registers the preference routes with the API.
func (h *PreferenceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getPreferences",
		Method:      "GET",
		Path:        "/api/preferences",
		Summary:     "Get preferences",
		Tags:        []string{"Preferences"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "putPreferences",
		Method:      "PUT",
		Path:        "/api/preferences",
		Summary:     "Replace preferences",
		Tags:        []string{"Preferences"},
	}, h.Put)

	huma.Register(api, huma.Operation{
		OperationID: "getOriginDetail",
		Method:      "GET",
		Path:        "/api/origins/{origin}/detail",
		Summary:     "Resolve a title's episodes on one origin",
		Tags:        []string{"Origins"},
	}, h.Detail)
}

// Get returns the active preferences.
func (h *PreferenceHandler) Get(ctx context.Context, input *struct{}) (*PreferencesOutput, error) {
	return &PreferencesOutput{Body: h.prefs.Get()}, nil
}

// Put replaces the preferences.
func (h *PreferenceHandler) Put(ctx context.Context, input *PutPreferencesInput) (*PreferencesOutput, error) {
	if err := h.prefs.Set(input.Body); err != nil {
		if errors.Is(err, service.ErrInvalidSortOrder) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}
	return &PreferencesOutput{Body: h.prefs.Get()}, nil
}

// Detail resolves a title's detail record through the named origin,
// episodes ordered per the active preferences.
func (h *PreferenceHandler) Detail(ctx context.Context, input *DetailInput) (*DetailOutput, error) {
	detail, err := h.details.Lookup(ctx, input.Origin, input.Title)
	if err != nil {
		switch {
		case errors.Is(err, origin.ErrOriginNotFound):
			return nil, huma.Error404NotFound(err.Error())
		case errors.Is(err, service.ErrTitleNotFound):
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.Error502BadGateway(err.Error())
	}
	return &DetailOutput{Body: *detail}, nil
}
