package origin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/models"
)

// maxResponseBytes bounds how much of an origin response we are willing
// to decode. Origin APIs are untrusted.
const maxResponseBytes = 4 << 20

// Adapter resolves titles against one origin's search and detail
// endpoints, normalizing whatever JSON shape the origin speaks into
// models.VideoDetail.
type Adapter struct {
	client *httpclient.Client
}

// NewAdapter creates an adapter over the given HTTP client.
func NewAdapter(client *httpclient.Client) *Adapter {
	return &Adapter{client: client}
}

// SearchHit is one search result from an origin.
type SearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Search queries the origin for a title and returns the normalized
// hits, in origin order.
func (a *Adapter) Search(ctx context.Context, o *models.OriginCandidate, title string) ([]SearchHit, error) {
	body, err := a.fetchJSON(ctx, o, o.SearchURL(title))
	if err != nil {
		return nil, err
	}

	raw, err := extractList(body, "results", "data", "list", "items")
	if err != nil {
		return nil, fmt.Errorf("search response from %s: %w", o.ID, err)
	}

	hits := make([]SearchHit, 0, len(raw))
	for _, item := range raw {
		hit := SearchHit{
			ID:    firstString(item, "id", "vod_id", "video_id"),
			Title: firstString(item, "title", "name", "vod_name"),
		}
		if hit.ID != "" {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Detail fetches and normalizes the detail record for a search hit.
func (a *Adapter) Detail(ctx context.Context, o *models.OriginCandidate, id string) (*models.VideoDetail, error) {
	body, err := a.fetchJSON(ctx, o, o.DetailURL(id))
	if err != nil {
		return nil, err
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("detail response from %s: %w", o.ID, err)
	}

	// Some origins nest the record under a wrapper key.
	for _, key := range []string{"detail", "video", "vod"} {
		if nested, ok := root[key]; ok {
			var inner map[string]json.RawMessage
			if json.Unmarshal(nested, &inner) == nil {
				root = inner
			}
			break
		}
	}

	detail := &models.VideoDetail{
		ID:       id,
		OriginID: o.ID,
		Title:    firstString(root, "title", "name", "vod_name"),
	}

	episodes, err := extractEpisodes(root)
	if err != nil {
		return nil, fmt.Errorf("detail response from %s: %w", o.ID, err)
	}
	detail.Episodes = episodes

	return detail, nil
}

// fetchJSON performs a GET with the origin's headers and returns the
// response body.
func (a *Adapter) fetchJSON(ctx context.Context, o *models.OriginCandidate, url string) ([]byte, error) {
	headers := make(map[string]string, len(o.Headers)+1)
	for k, v := range o.Headers {
		headers[k] = v
	}
	if o.UserAgent != "" {
		headers["User-Agent"] = o.UserAgent
	}

	resp, err := a.client.Get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, o.ID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// extractList finds the first of the candidate keys holding a JSON
// array of objects. A top-level array is also accepted.
func extractList(body []byte, keys ...string) ([]map[string]json.RawMessage, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("not a JSON object or array: %w", err)
	}

	for _, key := range keys {
		raw, ok := root[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("key %q is not an array of objects: %w", key, err)
		}
		return items, nil
	}

	// No list key at all means zero results rather than an error.
	return nil, nil
}

// extractEpisodes normalizes the playable entries of a detail record.
func extractEpisodes(root map[string]json.RawMessage) ([]models.Episode, error) {
	for _, key := range []string{"episodes", "playlist", "play_list", "urls"} {
		raw, ok := root[key]
		if !ok {
			continue
		}

		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("key %q is not an array of objects: %w", key, err)
		}

		episodes := make([]models.Episode, 0, len(items))
		for _, item := range items {
			ep := models.Episode{
				Name: firstString(item, "name", "title", "episode"),
				URL:  firstString(item, "url", "play_url", "link", "uri"),
			}
			if ep.URL != "" {
				episodes = append(episodes, ep)
			}
		}
		return episodes, nil
	}
	return nil, nil
}

// firstString returns the first of the candidate keys decodable as a
// string. Numeric ids are converted.
func firstString(item map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var n json.Number
		if json.Unmarshal(raw, &n) == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}
