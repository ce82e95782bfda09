package origin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/models"
)

func adapterOrigin(baseURL string) *models.OriginCandidate {
	return &models.OriginCandidate{
		ID:         "test",
		Name:       "Test",
		BaseURL:    baseURL,
		SearchPath: "/search",
		DetailPath: "/detail/",
		Headers:    map[string]string{"X-Api-Key": "secret"},
		UserAgent:  "custom-agent/2.0",
	}
}

func TestAdapterSearchNormalizesShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"results key", `{"results":[{"id":"v1","title":"Show One"},{"id":"v2","title":"Show Two"}]}`},
		{"data key", `{"data":[{"vod_id":1,"vod_name":"Show One"},{"vod_id":2,"vod_name":"Show Two"}]}`},
		{"top-level array", `[{"id":"v1","name":"Show One"},{"id":"v2","name":"Show Two"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "show", r.URL.Query().Get("q"))
				assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
				assert.Equal(t, "custom-agent/2.0", r.Header.Get("User-Agent"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a := NewAdapter(httpclient.NewWithDefaults())
			hits, err := a.Search(context.Background(), adapterOrigin(srv.URL), "show")
			require.NoError(t, err)
			require.Len(t, hits, 2)
			assert.NotEmpty(t, hits[0].ID)
		})
	}
}

func TestAdapterSearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0}`))
	}))
	defer srv.Close()

	a := NewAdapter(httpclient.NewWithDefaults())
	hits, err := a.Search(context.Background(), adapterOrigin(srv.URL), "nothing")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAdapterSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewAdapter(httpclient.NewWithDefaults())
	_, err := a.Search(context.Background(), adapterOrigin(srv.URL), "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestAdapterDetail(t *testing.T) {
	detail := map[string]any{
		"title": "Show One",
		"episodes": []map[string]any{
			{"name": "Ep 1", "url": "https://cdn.example.com/ep1.m3u8"},
			{"name": "Ep 2", "url": "https://cdn.example.com/ep2.m3u8"},
			{"name": "broken"},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detail/v1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(detail)
	}))
	defer srv.Close()

	a := NewAdapter(httpclient.NewWithDefaults())
	got, err := a.Detail(context.Background(), adapterOrigin(srv.URL), "v1")
	require.NoError(t, err)

	assert.Equal(t, "v1", got.ID)
	assert.Equal(t, "test", got.OriginID)
	assert.Equal(t, "Show One", got.Title)
	require.Len(t, got.Episodes, 2)
	assert.Equal(t, "https://cdn.example.com/ep1.m3u8", got.Episodes[0].URL)
}

func TestAdapterDetailNestedWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":{"vod_name":"Wrapped","play_list":[{"title":"Ep","play_url":"https://cdn.example.com/w.m3u8"}]}}`))
	}))
	defer srv.Close()

	a := NewAdapter(httpclient.NewWithDefaults())
	got, err := a.Detail(context.Background(), adapterOrigin(srv.URL), "v9")
	require.NoError(t, err)

	assert.Equal(t, "Wrapped", got.Title)
	require.True(t, got.HasEpisodes())
	assert.Equal(t, "https://cdn.example.com/w.m3u8", got.FirstPlayable().URL)
}

func TestAdapterDetailMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := NewAdapter(httpclient.NewWithDefaults())
	_, err := a.Detail(context.Background(), adapterOrigin(srv.URL), "v1")
	require.Error(t, err)
}
