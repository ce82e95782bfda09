package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/siftarr/siftarr/internal/observability"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/service"
	"github.com/siftarr/siftarr/pkg/hls"
)

// PlaylistHandler proxies upstream HLS playlists, filtering ad segments
// out before the response reaches the player. It serves raw m3u8 text
// rather than JSON, so it registers on the router directly.
type PlaylistHandler struct {
	manifests *service.ManifestService
}

// NewPlaylistHandler creates a playlist proxy handler. Per-request
// logging goes through the logger the middleware put on the context.
func NewPlaylistHandler(manifests *service.ManifestService) *PlaylistHandler {
	return &PlaylistHandler{manifests: manifests}
}

// Register mounts the proxy route on the router.
func (h *PlaylistHandler) Register(router chi.Router) {
	router.Get("/proxy/playlist", h.Serve)
}

// Serve fetches, filters, and returns the playlist named by the url
// query parameter. The optional origin parameter selects per-origin
// request headers.
func (h *PlaylistHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "url query parameter is required", http.StatusBadRequest)
		return
	}
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		http.Error(w, "url must be absolute http or https", http.StatusBadRequest)
		return
	}

	originID := r.URL.Query().Get("origin")

	filtered, err := h.manifests.Fetch(r.Context(), rawURL, originID)
	if err != nil {
		switch {
		case errors.Is(err, origin.ErrOriginNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			var parseErr *hls.ParseError
			if errors.As(err, &parseErr) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			observability.LoggerFromContext(r.Context()).Warn("playlist proxy failed",
				slog.String("url", rawURL),
				slog.String("error", err.Error()),
			)
			http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Segments-Removed", strconv.Itoa(filtered.Removed))
	_, _ = w.Write([]byte(filtered.Body))
}
