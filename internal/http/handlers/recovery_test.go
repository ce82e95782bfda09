package handlers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/recovery"
)

func newRecoveryHandler() *RecoveryHandler {
	return NewRecoveryHandler(recovery.NewManager(time.Second, 3, slog.Default()))
}

func TestRecoveryHandler_SessionLifecycle(t *testing.T) {
	handler := newRecoveryHandler()
	ctx := context.Background()

	created, err := handler.Create(ctx, &struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := created.Body.ID
	if id == "" {
		t.Fatal("expected session id")
	}
	if created.Body.State != recovery.StatePlaying {
		t.Errorf("expected playing state, got %q", created.Body.State)
	}

	got, err := handler.Get(ctx, &GetSessionInput{Session: id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Body.ID != id {
		t.Errorf("expected id %q, got %q", id, got.Body.ID)
	}

	deleted, err := handler.Delete(ctx, &DeleteSessionInput{Session: id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.Body.Deleted != id {
		t.Errorf("expected deleted %q, got %q", id, deleted.Body.Deleted)
	}

	if _, err := handler.Get(ctx, &GetSessionInput{Session: id}); err == nil {
		t.Error("expected error for destroyed session")
	}
}

func TestRecoveryHandler_FaultFlow(t *testing.T) {
	handler := newRecoveryHandler()
	ctx := context.Background()

	created, err := handler.Create(ctx, &struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := created.Body.ID

	fault := &FaultInput{Session: id}
	fault.Body = models.FaultDescriptor{Class: models.FaultNetwork, Detail: "fragment load error"}

	out, err := handler.Fault(ctx, fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Body.Decision.Action != recovery.ActionRetryNetwork {
		t.Errorf("expected retry_network, got %q", out.Body.Decision.Action)
	}
	if out.Body.Decision.Backoff != time.Second {
		t.Errorf("expected 1s backoff, got %v", out.Body.Decision.Backoff)
	}
	if out.Body.Session.NetworkRetries != 1 {
		t.Errorf("expected 1 network retry, got %d", out.Body.Session.NetworkRetries)
	}
}

func TestRecoveryHandler_StartedEnablesBufferAppendIgnore(t *testing.T) {
	handler := newRecoveryHandler()
	ctx := context.Background()

	created, _ := handler.Create(ctx, &struct{}{})
	id := created.Body.ID

	if _, err := handler.Started(ctx, &StartedInput{Session: id}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fault := &FaultInput{Session: id}
	fault.Body = models.FaultDescriptor{Class: models.FaultMedia, Detail: models.MediaBufferAppend}

	out, err := handler.Fault(ctx, fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Body.Decision.Action != recovery.ActionIgnore {
		t.Errorf("expected ignore, got %q", out.Body.Decision.Action)
	}
}

func TestRecoveryHandler_InvalidFaultClass(t *testing.T) {
	handler := newRecoveryHandler()
	ctx := context.Background()

	created, _ := handler.Create(ctx, &struct{}{})

	fault := &FaultInput{Session: created.Body.ID}
	fault.Body = models.FaultDescriptor{Class: "bogus"}

	if _, err := handler.Fault(ctx, fault); err == nil {
		t.Error("expected error for unknown fault class")
	}
}

func TestRecoveryHandler_UnknownSession(t *testing.T) {
	handler := newRecoveryHandler()

	if _, err := handler.Get(context.Background(), &GetSessionInput{Session: "nope"}); err == nil {
		t.Error("expected error for unknown session")
	}
}
