package subliminal

import (
	"slices"
	"testing"
)

func TestSubtitle_Key(t *testing.T) {
	sub := &Subtitle{ProviderName: "opensubtitles", ID: "4321"}
	if sub.Key() != "opensubtitles:4321" {
		t.Fatalf("Key() = %q, want opensubtitles:4321", sub.Key())
	}
}

func TestSubtitle_Matches_Episode(t *testing.T) {
	video := EpisodeFromName("Example Show S03E07 720p HDTV x264-TEAM")
	sub := &Subtitle{
		ReleaseInfo: "Example.Show.S03E07.720p.HDTV.x264-TEAM",
	}

	matches := sub.Matches(video)
	for _, want := range []string{"series", "season", "episode", "source", "resolution", "video_codec", "release_group"} {
		if !slices.Contains(matches, want) {
			t.Fatalf("Expected criterion %q in matches %v", want, matches)
		}
	}
	if slices.Contains(matches, "year") {
		t.Fatalf("year must not match when the video has no year: %v", matches)
	}
}

func TestSubtitle_Matches_Movie(t *testing.T) {
	video := MovieFromName("Example Movie 2019 1080p BluRay x264")
	sub := &Subtitle{ReleaseInfo: "Example Movie 2019 720p WEB-DL"}

	matches := sub.Matches(video)
	if !slices.Contains(matches, "title") || !slices.Contains(matches, "year") {
		t.Fatalf("Expected title and year to match, got %v", matches)
	}
	if slices.Contains(matches, "resolution") || slices.Contains(matches, "source") {
		t.Fatalf("Mismatched release metadata must not count: %v", matches)
	}
}

func TestSubtitle_Matches_FallsBackToFilename(t *testing.T) {
	video := EpisodeFromName("Example Show S01E01")
	sub := &Subtitle{Filename: "Example.Show.S01E01.srt"}

	matches := sub.Matches(video)
	for _, want := range []string{"series", "season", "episode"} {
		if !slices.Contains(matches, want) {
			t.Fatalf("Expected criterion %q from filename, got %v", want, matches)
		}
	}
}
