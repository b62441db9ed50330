package subliminal

import "fmt"

// Scoring criteria per video kind. A candidate earns one point per matched
// criterion; the normalized score is matches over the criteria count for the
// kind, which keeps every score inside [0,1].
var (
	episodeCriteria = []string{
		"series", "year", "season", "episode",
		"source", "resolution", "video_codec", "audio_codec", "release_group",
	}
	movieCriteria = []string{
		"title", "year",
		"source", "resolution", "video_codec", "audio_codec", "release_group",
	}
)

// MaxScore returns the best achievable match count for a video kind.
func MaxScore(kind VideoKind) int {
	switch kind {
	case KindEpisode:
		return len(episodeCriteria)
	case KindMovie:
		return len(movieCriteria)
	default:
		return 0
	}
}

// NormalizedScore computes the [0,1] relevance score of a candidate against
// a video descriptor. It errors on a descriptor whose kind has no criteria
// table; callers treat that as a per-candidate failure and skip the item.
func NormalizedScore(sub *Subtitle, video *Video) (float64, error) {
	max := MaxScore(video.Kind)
	if max == 0 {
		return 0, fmt.Errorf("no scoring criteria for video kind %q", video.Kind)
	}
	matches := sub.Matches(video)
	return float64(len(matches)) / float64(max), nil
}
