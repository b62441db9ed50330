package subliminal

import (
	"regexp"
	"strconv"
	"strings"
)

// VideoKind distinguishes the two search targets. Scoring criteria differ
// per kind, so the kind also determines the best achievable match count.
type VideoKind int

const (
	KindMovie VideoKind = iota
	KindEpisode
)

// String returns the kind name used in logs.
func (k VideoKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// Video is the descriptor built from a free-text title plus optional
// season/episode numbers. Release metadata fields are filled when the name
// carries scene-style markers and are compared against candidate subtitles
// during scoring.
type Video struct {
	Kind    VideoKind
	Title   string // movie title or series name
	Year    int
	Season  int
	Episode int

	Source       string // BluRay, WEB-DL, HDTV, ...
	Resolution   string // 1080p, 720p, ...
	VideoCodec   string
	AudioCodec   string
	ReleaseGroup string
}

var (
	episodeMarkerRe = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*E(\d{1,3})\b`)
	episodeXRe      = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
	yearRe          = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	resolutionRe    = regexp.MustCompile(`(?i)\b(\d{3,4}p)\b`)
	sourceRe        = regexp.MustCompile(`(?i)\b(BluRay|Blu-ray|BDRip|BRRip|REMUX|WEB-DL|WEBDL|WEBRip|WEB|HDTV|DVDRip|DVD)\b`)
	videoCodecRe    = regexp.MustCompile(`(?i)\b(x264|x265|H\.?264|H\.?265|HEVC|AVC|XviD|DivX|AV1)\b`)
	audioCodecRe    = regexp.MustCompile(`(?i)\b(DTS-HD|DTS|TrueHD|Atmos|E?AC3|DDP?|AAC|FLAC|Opus|MP3)\b`)
	releaseGroupRe  = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	extensionRe     = regexp.MustCompile(`(?i)\.(srt|ass|ssa|vtt|sub|mkv|mp4|avi)$`)
	separatorRe     = regexp.MustCompile(`[._]+`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// MovieFromName builds a movie descriptor from a free-text name such as
// "Example Movie 2019 1080p BluRay x264-GROUP".
func MovieFromName(name string) *Video {
	v := parseReleaseName(name)
	v.Kind = KindMovie
	return v
}

// EpisodeFromName builds an episode descriptor from a free-text name such as
// "Example Show S03E07 720p WEB-DL". Season and episode markers embedded in
// the name take effect; the caller usually appends them itself.
func EpisodeFromName(name string) *Video {
	v := parseReleaseName(name)
	v.Kind = KindEpisode
	return v
}

// parseReleaseName extracts release metadata from a scene-style name and
// derives the plain title from whatever precedes the first marker.
func parseReleaseName(name string) *Video {
	name = extensionRe.ReplaceAllString(name, "")
	normalized := strings.TrimSpace(separatorRe.ReplaceAllString(name, " "))

	v := &Video{}
	titleEnd := len(normalized)

	take := func(loc []int) string {
		if loc == nil {
			return ""
		}
		if loc[0] < titleEnd {
			titleEnd = loc[0]
		}
		return normalized[loc[2]:loc[3]]
	}

	if m := episodeMarkerRe.FindStringSubmatchIndex(normalized); m != nil {
		v.Season, _ = strconv.Atoi(normalized[m[2]:m[3]])
		v.Episode, _ = strconv.Atoi(normalized[m[4]:m[5]])
		if m[0] < titleEnd {
			titleEnd = m[0]
		}
	} else if m := episodeXRe.FindStringSubmatchIndex(normalized); m != nil {
		v.Season, _ = strconv.Atoi(normalized[m[2]:m[3]])
		v.Episode, _ = strconv.Atoi(normalized[m[4]:m[5]])
		if m[0] < titleEnd {
			titleEnd = m[0]
		}
	}

	if year := take(yearRe.FindStringSubmatchIndex(normalized)); year != "" {
		v.Year, _ = strconv.Atoi(year)
	}
	v.Resolution = strings.ToLower(take(resolutionRe.FindStringSubmatchIndex(normalized)))
	v.Source = canonicalSource(take(sourceRe.FindStringSubmatchIndex(normalized)))
	v.VideoCodec = canonicalVideoCodec(take(videoCodecRe.FindStringSubmatchIndex(normalized)))
	v.AudioCodec = canonicalAudioCodec(take(audioCodecRe.FindStringSubmatchIndex(normalized)))

	if m := releaseGroupRe.FindStringSubmatch(normalized); m != nil {
		v.ReleaseGroup = m[1]
	}

	title := strings.TrimSpace(normalized[:titleEnd])
	title = strings.Trim(title, "-( ")
	v.Title = spacesRe.ReplaceAllString(title, " ")

	return v
}

// canonicalSource collapses source aliases so "Blu-ray" and "BluRay" compare equal.
func canonicalSource(s string) string {
	switch strings.ToLower(s) {
	case "":
		return ""
	case "bluray", "blu-ray", "bdrip", "brrip", "remux":
		return "bluray"
	case "web-dl", "webdl", "webrip", "web":
		return "web"
	case "hdtv":
		return "hdtv"
	case "dvdrip", "dvd":
		return "dvd"
	default:
		return strings.ToLower(s)
	}
}

func canonicalVideoCodec(s string) string {
	switch strings.ToLower(strings.ReplaceAll(s, ".", "")) {
	case "":
		return ""
	case "x264", "h264", "avc":
		return "h264"
	case "x265", "h265", "hevc":
		return "h265"
	default:
		return strings.ToLower(s)
	}
}

func canonicalAudioCodec(s string) string {
	switch strings.ToLower(s) {
	case "":
		return ""
	case "ac3", "eac3", "dd", "ddp":
		return "dolby"
	case "dts", "dts-hd":
		return "dts"
	default:
		return strings.ToLower(s)
	}
}

// equalTitle compares titles ignoring case and surrounding whitespace.
func equalTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
