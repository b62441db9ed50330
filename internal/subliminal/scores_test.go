package subliminal

import "testing"

func TestMaxScore(t *testing.T) {
	if got := MaxScore(KindEpisode); got != len(episodeCriteria) {
		t.Fatalf("MaxScore(episode) = %d, want %d", got, len(episodeCriteria))
	}
	if got := MaxScore(KindMovie); got != len(movieCriteria) {
		t.Fatalf("MaxScore(movie) = %d, want %d", got, len(movieCriteria))
	}
	if got := MaxScore(VideoKind(42)); got != 0 {
		t.Fatalf("MaxScore(unknown) = %d, want 0", got)
	}
}

func TestNormalizedScore_Range(t *testing.T) {
	video := MovieFromName("Example Movie 2019 1080p BluRay x264-GROUP")
	sub := &Subtitle{
		ProviderName: "opensubtitles",
		ID:           "1",
		ReleaseInfo:  "Example Movie 2019 1080p BluRay x264-GROUP",
	}

	score, err := NormalizedScore(sub, video)
	if err != nil {
		t.Fatalf("NormalizedScore: %v", err)
	}
	if score <= 0 || score > 1 {
		t.Fatalf("Score %v outside (0,1]", score)
	}
}

func TestNormalizedScore_NoMatches(t *testing.T) {
	video := MovieFromName("Example Movie")
	sub := &Subtitle{ReleaseInfo: "Completely Different Film"}

	score, err := NormalizedScore(sub, video)
	if err != nil {
		t.Fatalf("NormalizedScore: %v", err)
	}
	if score != 0 {
		t.Fatalf("Score = %v, want 0 for an unrelated release", score)
	}
}

func TestNormalizedScore_UnknownKind(t *testing.T) {
	video := &Video{Kind: VideoKind(42), Title: "Whatever"}
	sub := &Subtitle{ReleaseInfo: "Whatever"}

	if _, err := NormalizedScore(sub, video); err == nil {
		t.Fatal("Expected error for a video kind without scoring criteria")
	}
}
