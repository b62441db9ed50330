package opensubtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/subliminal"
)

const searchBody = `{
	"total_count": 3,
	"data": [
		{
			"id": "100",
			"attributes": {
				"language": "en",
				"release": "Example.Movie.2019.1080p.BluRay.x264-GROUP",
				"files": [{"file_id": 9000, "file_name": "example.movie.srt"}]
			}
		},
		{
			"id": "101",
			"attributes": {
				"language": "en",
				"release": "No files for this one",
				"files": []
			}
		},
		{
			"id": "102",
			"attributes": {
				"language": "zz-not-a-language-!!",
				"release": "Broken language entry",
				"files": [{"file_id": 9001, "file_name": "x.srt"}]
			}
		}
	]
}`

func newTestProvider(t *testing.T, baseURL string) subliminal.Provider {
	t.Helper()
	p, err := New(subliminal.ProviderConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func mustLanguage(t *testing.T, code string) []language.Tag {
	t.Helper()
	tag, err := subliminal.ParseLanguage(code)
	if err != nil {
		t.Fatalf("ParseLanguage: %v", err)
	}
	return []language.Tag{tag}
}

func TestListSubtitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subtitles" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Errorf("Api-Key = %q", got)
		}
		query := r.URL.Query()
		if query.Get("query") != "Example Movie" {
			t.Errorf("query = %q", query.Get("query"))
		}
		if query.Get("languages") != "en" {
			t.Errorf("languages = %q", query.Get("languages"))
		}
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	subs, err := p.ListSubtitles(context.Background(), subliminal.MovieFromName("Example Movie"), mustLanguage(t, "en"))
	if err != nil {
		t.Fatalf("ListSubtitles: %v", err)
	}

	// Candidates without files or with broken language metadata are dropped.
	if len(subs) != 1 {
		t.Fatalf("Expected 1 usable candidate, got %d", len(subs))
	}
	sub := subs[0]
	if sub.Key() != "opensubtitles:100" {
		t.Fatalf("Key = %q", sub.Key())
	}
	if sub.DownloadRef != "9000" {
		t.Fatalf("DownloadRef = %q, want the file id", sub.DownloadRef)
	}
	if sub.Filename != "example.movie.srt" {
		t.Fatalf("Filename = %q", sub.Filename)
	}
}

func TestListSubtitles_EpisodeParams(t *testing.T) {
	var gotSeason, gotEpisode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSeason = r.URL.Query().Get("season_number")
		gotEpisode = r.URL.Query().Get("episode_number")
		_, _ = w.Write([]byte(`{"total_count":0,"data":[]}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	video := subliminal.EpisodeFromName("Example Show S02E05")
	if _, err := p.ListSubtitles(context.Background(), video, mustLanguage(t, "en")); err != nil {
		t.Fatalf("ListSubtitles: %v", err)
	}
	if gotSeason != "2" || gotEpisode != "5" {
		t.Fatalf("season/episode params = %q/%q, want 2/5", gotSeason, gotEpisode)
	}
}

func TestListSubtitles_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.ListSubtitles(context.Background(), subliminal.MovieFromName("X"), mustLanguage(t, "en"))
	if err == nil {
		t.Fatal("Expected error on non-200 search response")
	}
}

func TestDownload(t *testing.T) {
	const content = "1\n00:00:01,000 --> 00:00:02,000\nHi.\n"

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			var req map[string]int
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode download request: %v", err)
			}
			if req["file_id"] != 9000 {
				t.Errorf("file_id = %d", req["file_id"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"link":      fmt.Sprintf("%s/file/9000", server.URL),
				"file_name": "example.movie.srt",
				"remaining": 99,
			})
		case "/file/9000":
			_, _ = w.Write([]byte(content))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	sub := &subliminal.Subtitle{ProviderName: ProviderName, ID: "100", DownloadRef: "9000"}
	if err := p.Download(context.Background(), sub); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(sub.Content) != content {
		t.Fatalf("Content = %q", sub.Content)
	}
}

func TestDownload_NoLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "download quota exceeded"}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	sub := &subliminal.Subtitle{ProviderName: ProviderName, ID: "100", DownloadRef: "9000"}
	err := p.Download(context.Background(), sub)
	if err == nil {
		t.Fatal("Expected error when the response carries no link")
	}
}
