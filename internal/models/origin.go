package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Common validation errors.
var (
	ErrOriginIDRequired   = errors.New("origin id is required")
	ErrOriginNameRequired = errors.New("origin name is required")
	ErrOriginURLInvalid   = errors.New("origin base URL is invalid")
)

// OriginCandidate describes one third-party backend offering
// search/detail/playback for video titles. Candidates are owned by the
// origin registry; probing treats them as read-only.
type OriginCandidate struct {
	// ID uniquely identifies the origin.
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Name is a user-friendly display name.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// BaseURL is the origin API root, e.g. "https://api.example.com".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// SearchPath is the search endpoint path, relative to BaseURL.
	// The title query parameter is appended by the adapter.
	SearchPath string `json:"search_path" yaml:"search_path" mapstructure:"search_path"`

	// DetailPath is the detail endpoint path, relative to BaseURL.
	// The record identifier is appended by the adapter.
	DetailPath string `json:"detail_path" yaml:"detail_path" mapstructure:"detail_path"`

	// Headers are extra HTTP headers sent with every request to this
	// origin (API keys, referers).
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`

	// UserAgent overrides the default User-Agent for this origin.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" mapstructure:"user_agent"`

	// Priority determines registry ordering; higher sorts first.
	Priority int `json:"priority" yaml:"priority" mapstructure:"priority"`

	// Enabled indicates whether this origin participates in races.
	// Pointer so "not set" defaults to true.
	Enabled *bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// IsEnabled reports whether the origin participates in races.
func (o *OriginCandidate) IsEnabled() bool {
	return BoolVal(o.Enabled)
}

// SearchURL builds the absolute search URL for a title.
func (o *OriginCandidate) SearchURL(title string) string {
	return joinPath(o.BaseURL, o.SearchPath) + "?q=" + url.QueryEscape(title)
}

// DetailURL builds the absolute detail URL for a record identifier.
func (o *OriginCandidate) DetailURL(id string) string {
	return strings.TrimSuffix(joinPath(o.BaseURL, o.DetailPath), "/") + "/" + url.PathEscape(id)
}

// Validate checks the candidate for required fields.
func (o *OriginCandidate) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrOriginIDRequired
	}
	if strings.TrimSpace(o.Name) == "" {
		return ErrOriginNameRequired
	}
	u, err := url.Parse(o.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrOriginURLInvalid, o.BaseURL)
	}
	return nil
}

func joinPath(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
