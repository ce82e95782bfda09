package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/probe"
	"github.com/siftarr/siftarr/internal/service"
)

func newRaceHandler(t *testing.T) *RaceHandler {
	t.Helper()

	playlist := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:4\n#EXTINF:4.000,\nseg0.ts\n#EXT-X-ENDLIST\n"
	mux := http.NewServeMux()
	var baseURL string
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"results":[{"id":"v1","title":%q}]}`, r.URL.Query().Get("q"))
	})
	mux.HandleFunc("/detail/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"title":"Show","episodes":[{"name":"Ep 1","url":"%s/play/ep1.m3u8"}]}`, baseURL)
	})
	mux.HandleFunc("/play/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist))
	})
	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	t.Cleanup(srv.Close)

	registry, err := origin.NewRegistry([]models.OriginCandidate{{
		ID:         "a",
		Name:       "Origin a",
		BaseURL:    srv.URL,
		SearchPath: "/search",
		DetailPath: "/detail",
	}}, nil, slog.Default())
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}

	client := httpclient.NewWithDefaults()
	prober := probe.NewProber(origin.NewAdapter(client), client, 5*time.Second, slog.Default())
	coordinator := probe.NewCoordinator(prober, 5*time.Second, slog.Default())
	cache := probe.NewResultCache(time.Minute, 10)
	races := service.NewRaceService(registry, coordinator, cache, probe.DefaultSwitchThreshold, slog.Default())

	return NewRaceHandler(races)
}

func TestRaceHandler_Race(t *testing.T) {
	handler := newRaceHandler(t)

	input := &RaceInput{}
	input.Body.Title = "Show"

	out, err := handler.Race(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Body.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Body.Results))
	}
	if out.Body.Best == nil || out.Body.Best.OriginID != "a" {
		t.Errorf("expected best origin 'a', got %+v", out.Body.Best)
	}
	if out.Body.FromCache {
		t.Error("first race must not come from cache")
	}

	// Second identical request hits the cache.
	out2, err := handler.Race(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out2.Body.FromCache {
		t.Error("second race should come from cache")
	}
}

func TestRaceHandler_Refresh(t *testing.T) {
	handler := newRaceHandler(t)

	input := &RaceInput{}
	input.Body.Title = "Show"
	if _, err := handler.Race(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := handler.Refresh(context.Background(), &RefreshInput{Title: "Show"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Body.FromCache {
		t.Error("refresh must bypass the cache")
	}
}

func TestRaceHandler_EmptyTitle(t *testing.T) {
	handler := newRaceHandler(t)

	input := &RaceInput{}
	if _, err := handler.Race(context.Background(), input); err == nil {
		t.Error("expected error for empty title")
	}
}
