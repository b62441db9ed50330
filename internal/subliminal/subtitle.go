package subliminal

import (
	"fmt"

	"golang.org/x/text/language"
)

// Subtitle is the in-memory handle for one search-result candidate. The
// handle is produced by a provider's ListSubtitles and must be reused for
// the download step: DownloadRef is provider-interpreted and cannot be
// reconstructed from the composite key alone.
type Subtitle struct {
	ProviderName string
	ID           string // provider-local identifier
	Language     language.Tag
	ReleaseInfo  string // release label, may be empty
	Filename     string

	// DownloadRef is whatever the owning provider needs to fetch the file:
	// a file id for REST providers, a URL path for scrapers.
	DownloadRef string

	// Content holds the subtitle text once a download has attached it.
	Content []byte
}

// Key returns the composite identifier "provider:localId" under which the
// handle is cached between search and download.
func (s *Subtitle) Key() string {
	return fmt.Sprintf("%s:%s", s.ProviderName, s.ID)
}

// Matches returns the set of scoring criteria the candidate satisfies for
// the given video. The candidate's release label (falling back to its
// filename) is parsed the same way the video descriptor was, then compared
// field by field.
func (s *Subtitle) Matches(video *Video) []string {
	label := s.ReleaseInfo
	if label == "" {
		label = s.Filename
	}
	guess := parseReleaseName(label)

	var matches []string
	add := func(criterion string, ok bool) {
		if ok {
			matches = append(matches, criterion)
		}
	}

	switch video.Kind {
	case KindEpisode:
		add("series", guess.Title != "" && equalTitle(guess.Title, video.Title))
		add("year", video.Year != 0 && guess.Year == video.Year)
		add("season", video.Season != 0 && guess.Season == video.Season)
		add("episode", video.Episode != 0 && guess.Episode == video.Episode)
	case KindMovie:
		add("title", guess.Title != "" && equalTitle(guess.Title, video.Title))
		add("year", video.Year != 0 && guess.Year == video.Year)
	}

	add("source", video.Source != "" && guess.Source == video.Source)
	add("resolution", video.Resolution != "" && guess.Resolution == video.Resolution)
	add("video_codec", video.VideoCodec != "" && guess.VideoCodec == video.VideoCodec)
	add("audio_codec", video.AudioCodec != "" && guess.AudioCodec == video.AudioCodec)
	add("release_group", video.ReleaseGroup != "" && guess.ReleaseGroup != "" &&
		equalTitle(guess.ReleaseGroup, video.ReleaseGroup))

	return matches
}

// Text returns the attached content as a string. Download must have run
// first; the engine guarantees the bytes are valid UTF-8.
func (s *Subtitle) Text() string {
	return string(s.Content)
}
