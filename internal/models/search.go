package models

// SearchRequest is the body of POST /subliminal/search.
// Season and Episode must be supplied together or not at all.
type SearchRequest struct {
	Title     string   `json:"title" binding:"required"`
	Season    *int     `json:"season,omitempty"`
	Episode   *int     `json:"episode,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// IsEpisode reports whether the request targets a specific episode.
func (r *SearchRequest) IsEpisode() bool {
	return r.Season != nil && r.Episode != nil
}

// SubtitleItem is one scored search result as returned to the caller.
// ID has the form "provider:localId" and is unique within a response.
type SubtitleItem struct {
	ID       string  `json:"id"`
	Provider string  `json:"provider"`
	Language string  `json:"language"`
	Release  string  `json:"release"`
	Score    float64 `json:"score"`
	Filename string  `json:"filename,omitempty"`
}
