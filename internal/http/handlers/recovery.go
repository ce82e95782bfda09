package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/recovery"
)

// RecoveryHandler serves the playback fault recovery API.
type RecoveryHandler struct {
	manager *recovery.Manager
}

// NewRecoveryHandler creates a recovery handler.
func NewRecoveryHandler(manager *recovery.Manager) *RecoveryHandler {
	return &RecoveryHandler{manager: manager}
}

// SessionResponse describes one recovery session.
type SessionResponse struct {
	ID             string         `json:"id"`
	State          recovery.State `json:"state"`
	NetworkRetries int            `json:"network_retries"`
	MediaRetries   int            `json:"media_retries"`
}

// CreateSessionOutput is the output for creating a session.
type CreateSessionOutput struct {
	Body SessionResponse
}

// GetSessionInput is the input for inspecting a session.
type GetSessionInput struct {
	Session string `path:"session"`
}

// GetSessionOutput is the output for inspecting a session.
type GetSessionOutput struct {
	Body SessionResponse
}

// FaultInput is the input for reporting a playback fault.
type FaultInput struct {
	Session string `path:"session"`
	Body    models.FaultDescriptor
}

// FaultOutput is the output for reporting a playback fault.
type FaultOutput struct {
	Body struct {
		Decision recovery.Decision `json:"decision"`
		Session  SessionResponse   `json:"session"`
	}
}

// StartedInput is the input for marking playback as started.
type StartedInput struct {
	Session string `path:"session"`
}

// DeleteSessionInput is the input for destroying a session.
type DeleteSessionInput struct {
	Session string `path:"session"`
}

// DeleteSessionOutput is the output for destroying a session.
type DeleteSessionOutput struct {
	Body struct {
		Deleted string `json:"deleted"`
	}
}

// Register registers the recovery routes with the API.
func (h *RecoveryHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "createRecoverySession",
		Method:      "POST",
		Path:        "/api/recovery/session",
		Summary:     "Create a recovery session",
		Description: "One session per playback attempt; retry budgets reset only here",
		Tags:        []string{"Recovery"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "getRecoverySession",
		Method:      "GET",
		Path:        "/api/recovery/{session}",
		Summary:     "Inspect a recovery session",
		Tags:        []string{"Recovery"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "reportFault",
		Method:      "POST",
		Path:        "/api/recovery/{session}/fault",
		Summary:     "Report a playback fault",
		Description: "Returns the recovery action the player must take and the backoff to apply first",
		Tags:        []string{"Recovery"},
	}, h.Fault)

	huma.Register(api, huma.Operation{
		OperationID: "markPlaybackStarted",
		Method:      "POST",
		Path:        "/api/recovery/{session}/started",
		Summary:     "Mark playback as started",
		Tags:        []string{"Recovery"},
	}, h.Started)

	huma.Register(api, huma.Operation{
		OperationID: "deleteRecoverySession",
		Method:      "DELETE",
		Path:        "/api/recovery/{session}",
		Summary:     "Destroy a recovery session",
		Tags:        []string{"Recovery"},
	}, h.Delete)
}

func sessionResponse(s *recovery.Session) SessionResponse {
	network, media := s.Retries()
	return SessionResponse{
		ID:             s.ID().String(),
		State:          s.State(),
		NetworkRetries: network,
		MediaRetries:   media,
	}
}

// Create starts a new recovery session.
func (h *RecoveryHandler) Create(ctx context.Context, input *struct{}) (*CreateSessionOutput, error) {
	s := h.manager.Create()
	return &CreateSessionOutput{Body: sessionResponse(s)}, nil
}

// Get returns the state of a session.
func (h *RecoveryHandler) Get(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	s, err := h.manager.Get(input.Session)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &GetSessionOutput{Body: sessionResponse(s)}, nil
}

// Fault classifies a reported fault and returns the decided action.
func (h *RecoveryHandler) Fault(ctx context.Context, input *FaultInput) (*FaultOutput, error) {
	s, err := h.manager.Get(input.Session)
	if err != nil {
		if errors.Is(err, recovery.ErrSessionNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, err
	}

	if !input.Body.Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown fault class")
	}

	out := &FaultOutput{}
	out.Body.Decision = s.HandleFault(input.Body)
	out.Body.Session = sessionResponse(s)
	return out, nil
}

// Started marks playback as producing frames.
func (h *RecoveryHandler) Started(ctx context.Context, input *StartedInput) (*GetSessionOutput, error) {
	s, err := h.manager.Get(input.Session)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	s.MarkStarted()
	return &GetSessionOutput{Body: sessionResponse(s)}, nil
}

// Delete destroys a session, cancelling any pending backoff.
func (h *RecoveryHandler) Delete(ctx context.Context, input *DeleteSessionInput) (*DeleteSessionOutput, error) {
	if err := h.manager.Destroy(input.Session); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	out := &DeleteSessionOutput{}
	out.Body.Deleted = input.Session
	return out, nil
}
