package models

// VideoDetail is the normalized detail record for a title on one origin.
// Upstream APIs return wildly different JSON shapes; per-origin adapters
// map them into this record so nothing downstream handles untyped data.
type VideoDetail struct {
	// ID is the origin-scoped record identifier.
	ID string `json:"id"`

	// OriginID identifies the origin this record came from.
	OriginID string `json:"origin_id"`

	// Title is the display title as reported by the origin.
	Title string `json:"title"`

	// Episodes are the playable entries in playback order.
	Episodes []Episode `json:"episodes"`
}

// HasEpisodes reports whether the detail record has any playable entry.
func (d *VideoDetail) HasEpisodes() bool {
	return len(d.Episodes) > 0
}

// FirstPlayable returns the first episode with a non-empty playback URL,
// or nil if none exists.
func (d *VideoDetail) FirstPlayable() *Episode {
	for i := range d.Episodes {
		if d.Episodes[i].URL != "" {
			return &d.Episodes[i]
		}
	}
	return nil
}

// Episode is one playable entry of a video detail record.
type Episode struct {
	// Name is the episode display name.
	Name string `json:"name"`

	// URL is the playback URL, typically an HLS playlist.
	URL string `json:"url"`
}
