package handlers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
)

func newTestRegistry(t *testing.T, seed ...models.OriginCandidate) *origin.Registry {
	t.Helper()
	r, err := origin.NewRegistry(seed, nil, slog.Default())
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}
	return r
}

func validOrigin(id string) models.OriginCandidate {
	return models.OriginCandidate{
		ID:      id,
		Name:    "Origin " + id,
		BaseURL: "https://" + id + ".example.com",
	}
}

func TestOriginHandler_CRUD(t *testing.T) {
	handler := NewOriginHandler(newTestRegistry(t))
	ctx := context.Background()

	// Empty list.
	list, err := handler.List(ctx, &ListOriginsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Body.Origins) != 0 {
		t.Fatalf("expected empty registry, got %d origins", len(list.Body.Origins))
	}

	// Upsert, then read back.
	created, err := handler.Upsert(ctx, &UpsertOriginInput{Body: validOrigin("a")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Body.ID != "a" {
		t.Errorf("expected id 'a', got %q", created.Body.ID)
	}

	got, err := handler.Get(ctx, &GetOriginInput{ID: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Body.Name != "Origin a" {
		t.Errorf("expected name 'Origin a', got %q", got.Body.Name)
	}

	// Delete, then 404.
	deleted, err := handler.Delete(ctx, &DeleteOriginInput{ID: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.Body.Deleted != "a" {
		t.Errorf("expected deleted 'a', got %q", deleted.Body.Deleted)
	}

	if _, err := handler.Get(ctx, &GetOriginInput{ID: "a"}); err == nil {
		t.Error("expected error for deleted origin")
	}
}

func TestOriginHandler_UpsertInvalid(t *testing.T) {
	handler := NewOriginHandler(newTestRegistry(t))

	bad := models.OriginCandidate{ID: "x", Name: "X", BaseURL: "not-a-url"}
	if _, err := handler.Upsert(context.Background(), &UpsertOriginInput{Body: bad}); err == nil {
		t.Error("expected validation error")
	}
}

func TestOriginHandler_ListEnabledOnly(t *testing.T) {
	off := validOrigin("off")
	off.Enabled = models.BoolPtr(false)
	handler := NewOriginHandler(newTestRegistry(t, validOrigin("on"), off))

	list, err := handler.List(context.Background(), &ListOriginsInput{EnabledOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Body.Origins) != 1 || list.Body.Origins[0].ID != "on" {
		t.Errorf("expected only 'on', got %+v", list.Body.Origins)
	}
}
