package hls

// Classify reports whether a segment is advertising content: true when
// any pattern in the set matches the segment's resolved URI. Pure; the
// segment is not modified.
func Classify(seg *Segment, patterns *PatternSet) bool {
	if patterns == nil {
		return false
	}
	return patterns.Matches(seg.ResolvedURI())
}

// Filter returns a new playlist with ad segments removed. Segment order
// is preserved; header lines are copied unchanged. Whenever a retained
// segment immediately follows one or more removed segments and does not
// already carry a discontinuity marker in its own metadata, one is
// inserted before it.
//
// Filter is idempotent: ad segments are absent from its output, so a
// second pass with the same pattern set changes nothing.
func Filter(pl *Playlist, patterns *PatternSet) *Playlist {
	out := &Playlist{
		Header:   append([]string(nil), pl.Header...),
		Segments: make([]Segment, 0, len(pl.Segments)),
		Trailer:  append([]string(nil), pl.Trailer...),
	}

	removedRun := false
	for i := range pl.Segments {
		seg := pl.Segments[i]
		if Classify(&seg, patterns) {
			seg.IsAd = true
			removedRun = true
			continue
		}

		seg.Metadata = append([]string(nil), seg.Metadata...)
		if removedRun && !seg.HasDiscontinuity() {
			seg.Metadata = append([]string{DiscontinuityMarker}, seg.Metadata...)
		}
		removedRun = false
		out.Segments = append(out.Segments, seg)
	}

	return out
}

// FilterText is the whole pipeline in one call: parse text, filter with
// the pattern set, and serialize. It returns the filtered playlist text
// and the number of segments removed.
func FilterText(text, baseURL string, patterns *PatternSet) (string, int, error) {
	pl, err := Parse(text, baseURL)
	if err != nil {
		return "", 0, err
	}
	filtered := Filter(pl, patterns)
	return filtered.String(), pl.SegmentCount() - filtered.SegmentCount(), nil
}
