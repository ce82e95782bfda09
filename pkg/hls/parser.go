package hls

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
)

// ParseError is returned when a playlist is structurally broken: a segment
// directive with no following URI line before end of input. Every other
// malformed or unknown line is tolerated and carried through verbatim.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("playlist parse error at line %d: %s", e.Line, e.Msg)
}

// Parse parses playlist text into a Playlist. baseURL is the URL the
// playlist was fetched from; relative segment URIs are resolved against it
// for classification only, the original URI text is retained for
// serialization. baseURL may be empty.
func Parse(text string, baseURL string) (*Playlist, error) {
	return ParseReader(strings.NewReader(text), baseURL)
}

// ParseReader parses a playlist from a reader. The reader can provide
// plain text, gzip, bzip2, or xz compressed data; compression is detected
// from magic bytes.
func ParseReader(r io.Reader, baseURL string) (*Playlist, error) {
	reader, err := decompress(r)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if baseURL != "" {
		// A base URL we cannot parse just disables resolution.
		base, _ = url.Parse(baseURL)
	}

	scanner := bufio.NewScanner(reader)
	// Some playlists carry very long signed segment URLs.
	const maxLineSize = 1024 * 1024
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	pl := &Playlist{}
	var current *Segment
	sawExtinf := false
	lineNum := 0
	extinfLine := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, SegmentDirective) && !sawExtinf {
			if current == nil {
				current = &Segment{}
			}
			current.Duration = parseDuration(trimmed)
			current.Metadata = append(current.Metadata, line)
			sawExtinf = true
			extinfLine = lineNum
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			// Comment or directive: attach to the open segment if one is
			// being built, to the header before the first segment, and
			// otherwise open a metadata bucket for the next segment.
			switch {
			case current != nil:
				current.Metadata = append(current.Metadata, line)
			case len(pl.Segments) == 0:
				pl.Header = append(pl.Header, line)
			default:
				current = &Segment{Metadata: []string{line}}
			}
			continue
		}

		// URI line. A bare URI with no preceding EXTINF is tolerated as a
		// zero-duration segment.
		if current == nil {
			current = &Segment{}
		}
		current.URI = trimmed
		current.resolvedURI = resolveURI(base, trimmed)
		pl.Segments = append(pl.Segments, *current)
		current = nil
		sawExtinf = false
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning playlist: %w", err)
	}

	if current != nil {
		if sawExtinf {
			return nil, &ParseError{Line: extinfLine, Msg: "segment directive with no URI"}
		}
		// Directives after the last URI (ENDLIST and friends) form the
		// trailer; with no segments at all they belong to the header.
		if len(pl.Segments) == 0 {
			pl.Header = append(pl.Header, current.Metadata...)
		} else {
			pl.Trailer = append(pl.Trailer, current.Metadata...)
		}
	}

	return pl, nil
}

// parseDuration extracts the duration in seconds from an EXTINF line.
// Malformed durations are tolerated as zero.
func parseDuration(line string) float64 {
	rest := strings.TrimPrefix(line, SegmentDirective)
	if idx := strings.IndexByte(rest, ','); idx >= 0 {
		rest = rest[:idx]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0
	}
	return d
}

// resolveURI resolves uri against base. On any failure the original text
// is returned.
func resolveURI(base *url.URL, uri string) string {
	if base == nil {
		return uri
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return base.ResolveReference(ref).String()
}

// decompress wraps r with the appropriate decompression reader based on
// magic bytes. Plain text passes through untouched.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peeking header: %w", err)
	}

	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gzr, nil

	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		return bzip2.NewReader(br), nil

	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' && header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xzr, nil
	}

	return br, nil
}
