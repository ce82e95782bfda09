package probe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/origin"
)

const sampleMediaPlaylist = "#EXTM3U\n" +
	"#EXT-X-VERSION:3\n" +
	"#EXT-X-TARGETDURATION:4\n" +
	"#EXTINF:4.000,\n" +
	"seg0.ts\n" +
	"#EXT-X-ENDLIST\n"

// originStub serves search, detail, and a playback URL for one fake
// origin.
type originStub struct {
	srv        *httptest.Server
	searchBody string
	detailBody string
	playBody   string
	playStatus int
	playDelay  time.Duration
}

func newOriginStub(t *testing.T) *originStub {
	t.Helper()
	s := &originStub{playStatus: http.StatusOK, playBody: sampleMediaPlaylist}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if s.searchBody == "" {
			s.searchBody = fmt.Sprintf(`{"results":[{"id":"v1","title":%q}]}`, r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(s.searchBody))
	})
	mux.HandleFunc("/detail/", func(w http.ResponseWriter, r *http.Request) {
		body := s.detailBody
		if body == "" {
			body = fmt.Sprintf(`{"title":"Show","episodes":[{"name":"Ep 1","url":"%s/play/ep1.m3u8"}]}`, s.srv.URL)
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/play/", func(w http.ResponseWriter, r *http.Request) {
		if s.playDelay > 0 {
			time.Sleep(s.playDelay)
		}
		w.WriteHeader(s.playStatus)
		_, _ = w.Write([]byte(s.playBody))
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *originStub) candidate(id string) models.OriginCandidate {
	return models.OriginCandidate{
		ID:         id,
		Name:       "Origin " + id,
		BaseURL:    s.srv.URL,
		SearchPath: "/search",
		DetailPath: "/detail",
	}
}

func newTestProber(stepTimeout time.Duration) *Prober {
	client := httpclient.NewWithDefaults()
	return NewProber(origin.NewAdapter(client), client, stepTimeout, slog.Default())
}

func TestProbeSuccess(t *testing.T) {
	stub := newOriginStub(t)
	p := newTestProber(5 * time.Second)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	require.True(t, r.Available, "error: %s", r.Error)
	assert.Empty(t, r.Error)
	assert.Greater(t, r.LatencyMillis, 0.0)
	assert.False(t, math.IsInf(r.LatencyMillis, 1))
	require.NotNil(t, r.SampleDetail)
	assert.Equal(t, "a", r.SampleDetail.OriginID)
	assert.True(t, r.SampleDetail.HasEpisodes())
}

func TestProbeNotFound(t *testing.T) {
	stub := newOriginStub(t)
	stub.searchBody = `{"results":[]}`
	p := newTestProber(5 * time.Second)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	assert.False(t, r.Available)
	assert.Equal(t, "not found", r.Error)
	assert.True(t, math.IsInf(r.LatencyMillis, 1))
}

func TestProbeNoEpisodes(t *testing.T) {
	stub := newOriginStub(t)
	stub.detailBody = `{"title":"Show","episodes":[]}`
	p := newTestProber(5 * time.Second)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	assert.False(t, r.Available)
	assert.Equal(t, "no episodes", r.Error)
}

func TestProbeInvalidContent(t *testing.T) {
	stub := newOriginStub(t)
	stub.playBody = "<html>not a playlist</html>"
	p := newTestProber(5 * time.Second)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	assert.False(t, r.Available)
	assert.Equal(t, "invalid content", r.Error)
}

func TestProbePlaybackError(t *testing.T) {
	stub := newOriginStub(t)
	stub.playStatus = http.StatusNotFound
	p := newTestProber(5 * time.Second)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	assert.False(t, r.Available)
	assert.Contains(t, r.Error, "404")
}

func TestProbeStepTimeout(t *testing.T) {
	stub := newOriginStub(t)
	stub.playDelay = 300 * time.Millisecond
	p := newTestProber(50 * time.Millisecond)

	r := p.Probe(context.Background(), "Show", stub.candidate("a"))
	assert.False(t, r.Available)
	assert.Equal(t, "timeout", r.Error)
}

func TestProbeUnreachableOrigin(t *testing.T) {
	p := newTestProber(time.Second)
	candidate := models.OriginCandidate{
		ID:         "dead",
		Name:       "Dead",
		BaseURL:    "http://127.0.0.1:1",
		SearchPath: "/search",
		DetailPath: "/detail",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r := p.Probe(ctx, "Show", candidate)
	assert.False(t, r.Available)
	assert.NotEmpty(t, r.Error)
}
