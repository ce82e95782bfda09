// Package hls provides HLS media playlist parsing, ad-segment
// classification, and rewriting. The parser is deliberately tolerant:
// unknown directives are carried through verbatim so a rewritten playlist
// stays valid for players that depend on directives we do not understand.
package hls

import (
	"strings"
)

// Well-known playlist directives.
const (
	// HeaderMarker is the extended M3U format marker.
	HeaderMarker = "#EXTM3U"

	// SegmentDirective introduces a media segment and its duration.
	SegmentDirective = "#EXTINF:"

	// DiscontinuityMarker signals a decoding-timeline break between
	// adjacent segments.
	DiscontinuityMarker = "#EXT-X-DISCONTINUITY"
)

// Segment is one media segment referenced by a playlist.
type Segment struct {
	// Duration is the segment duration in seconds as declared by EXTINF.
	Duration float64

	// URI is the segment address exactly as it appeared in the playlist,
	// possibly relative. It is preserved verbatim for serialization.
	URI string

	// Metadata holds the EXTINF line and any comment lines attached to
	// this segment, in original order.
	Metadata []string

	// IsAd is set by classification; ad segments are dropped by Filter.
	IsAd bool

	// resolvedURI is the URI resolved against the playlist base URL,
	// used only for classification.
	resolvedURI string
}

// ResolvedURI returns the segment URI resolved against the playlist base
// URL. When resolution was not possible the original URI is returned.
func (s *Segment) ResolvedURI() string {
	if s.resolvedURI != "" {
		return s.resolvedURI
	}
	return s.URI
}

// HasDiscontinuity reports whether the segment's own metadata already
// carries a discontinuity marker.
func (s *Segment) HasDiscontinuity() bool {
	for _, line := range s.Metadata {
		if strings.TrimSpace(line) == DiscontinuityMarker {
			return true
		}
	}
	return false
}

// Playlist is a parsed HLS media playlist: header directives followed by
// an ordered sequence of segments.
type Playlist struct {
	// Header holds every line that precedes the first segment, verbatim.
	Header []string

	// Segments holds the media segments in playback order.
	Segments []Segment

	// Trailer holds every directive line that follows the last segment
	// URI, verbatim (typically EXT-X-ENDLIST).
	Trailer []string
}

// SegmentCount returns the number of segments.
func (p *Playlist) SegmentCount() int {
	return len(p.Segments)
}

// TotalDuration returns the sum of all segment durations in seconds.
func (p *Playlist) TotalDuration() float64 {
	var total float64
	for i := range p.Segments {
		total += p.Segments[i].Duration
	}
	return total
}

// Marshal serializes the playlist: header lines, then per segment its
// metadata lines followed by its URI line, newline-joined with a trailing
// newline.
func (p *Playlist) Marshal() []byte {
	var b strings.Builder
	for _, line := range p.Header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i := range p.Segments {
		for _, line := range p.Segments[i].Metadata {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString(p.Segments[i].URI)
		b.WriteByte('\n')
	}
	for _, line := range p.Trailer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// String returns the serialized playlist as a string.
func (p *Playlist) String() string {
	return string(p.Marshal())
}
