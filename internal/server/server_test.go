package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/models"
	"github.com/baoueb/subserver/internal/store"
	"github.com/baoueb/subserver/internal/subliminal"
)

// stubEngine is a scripted Searcher for handler tests.
type stubEngine struct {
	subtitles     []*subliminal.Subtitle
	listErr       error
	content       string
	downloadErr   error
	gotLanguages  []language.Tag
	downloadCalls int
}

func (s *stubEngine) ListSubtitles(ctx context.Context, video *subliminal.Video, languages []language.Tag) ([]*subliminal.Subtitle, error) {
	s.gotLanguages = languages
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.subtitles, nil
}

func (s *stubEngine) Download(ctx context.Context, sub *subliminal.Subtitle) error {
	s.downloadCalls++
	if s.downloadErr != nil {
		return s.downloadErr
	}
	sub.Content = []byte(s.content)
	return nil
}

func mustTag(t *testing.T, code string) language.Tag {
	t.Helper()
	tag, err := subliminal.ParseLanguage(code)
	if err != nil {
		t.Fatalf("ParseLanguage: %v", err)
	}
	return tag
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	srv := New(&stubEngine{}, store.New(time.Minute), Options{})
	rec := doJSON(t, srv.Router(), http.MethodGet, "/ping", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("Body = %q", rec.Body.String())
	}
}

func TestSearchAndDownload_EndToEnd(t *testing.T) {
	engine := &stubEngine{
		subtitles: []*subliminal.Subtitle{{
			ProviderName: "opensubtitles",
			ID:           "42",
			Language:     mustTag(t, "en"),
			ReleaseInfo:  "Example.Movie.1080p",
			Filename:     "example.movie.srt",
		}},
		content: "1\n00:00:01,000 --> 00:00:02,000\nHello.\n",
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	st := store.NewWithClock(1800*time.Second, func() time.Time { return now })

	// The candidate satisfies 3 of 4 criteria in this scenario.
	score := func(sub *subliminal.Subtitle, video *subliminal.Video) (float64, error) {
		return 3.0 / 4.0, nil
	}

	srv := New(engine, st, Options{Score: score})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/subliminal/search",
		`{"title": "Example Movie", "languages": ["en"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Search status = %d, body %s", rec.Code, rec.Body.String())
	}

	var items []models.SubtitleItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.ID != "opensubtitles:42" {
		t.Fatalf("ID = %q", item.ID)
	}
	if item.Score != 0.75 {
		t.Fatalf("Score = %v, want 0.75", item.Score)
	}

	// Download before expiry returns the stubbed content.
	rec = doJSON(t, router, http.MethodGet, "/subliminal/download/"+item.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Download status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != engine.content {
		t.Fatalf("Download body = %q", rec.Body.String())
	}

	// After the TTL window the same id is gone, with the expired message.
	now = now.Add(1801 * time.Second)
	rec = doJSON(t, router, http.MethodGet, "/subliminal/download/"+item.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expired download status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "expired") {
		t.Fatalf("Expected expired message, got %q", rec.Body.String())
	}
}

func TestSearch_Validation(t *testing.T) {
	srv := New(&stubEngine{}, store.New(time.Minute), Options{})
	router := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"languages": ["en"]}`},
		{name: "season without episode", body: `{"title": "X", "season": 2}`},
		{name: "episode without season", body: `{"title": "X", "episode": 5}`},
		{name: "non-positive season", body: `{"title": "X", "season": 0, "episode": 5}`},
		{name: "malformed body", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/subliminal/search", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSearch_LanguageFallback(t *testing.T) {
	engine := &stubEngine{}
	srv := New(engine, store.New(time.Minute), Options{DefaultLanguage: "ja"})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/subliminal/search",
		`{"title": "Example Movie", "languages": ["definitely not a language", "!!"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 despite unparseable languages", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("Expected empty result array, got %q", rec.Body.String())
	}

	if len(engine.gotLanguages) != 1 || engine.gotLanguages[0] != mustTag(t, "ja") {
		t.Fatalf("Expected fallback to ja, engine saw %v", engine.gotLanguages)
	}
}

func TestSearch_EmptyLanguagesFallback(t *testing.T) {
	engine := &stubEngine{}
	srv := New(engine, store.New(time.Minute), Options{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/subliminal/search", `{"title": "Example Movie"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	if len(engine.gotLanguages) != 1 || engine.gotLanguages[0] != mustTag(t, "en") {
		t.Fatalf("Expected single default language, engine saw %v", engine.gotLanguages)
	}
}

func TestSearch_ProviderFailure(t *testing.T) {
	engine := &stubEngine{listErr: errors.New("all providers down")}
	srv := New(engine, store.New(time.Minute), Options{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/subliminal/search", `{"title": "X"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "all providers down") {
		t.Fatalf("Expected underlying message, got %q", rec.Body.String())
	}
}

func TestSearch_ScoringFailureSkipsCandidate(t *testing.T) {
	engine := &stubEngine{
		subtitles: []*subliminal.Subtitle{
			{ProviderName: "a", ID: "good", Language: mustTag(t, "en")},
			{ProviderName: "a", ID: "bad", Language: mustTag(t, "en")},
			{ProviderName: "a", ID: "also-good", Language: mustTag(t, "en")},
		},
	}
	score := func(sub *subliminal.Subtitle, video *subliminal.Video) (float64, error) {
		if sub.ID == "bad" {
			return 0, fmt.Errorf("metadata extraction failed")
		}
		return 0.5, nil
	}

	srv := New(engine, store.New(time.Minute), Options{Score: score})
	rec := doJSON(t, srv.Router(), http.MethodPost, "/subliminal/search", `{"title": "X"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}

	var items []models.SubtitleItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected the two scorable candidates, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == "a:bad" {
			t.Fatal("The failing candidate must be skipped")
		}
	}
}

func TestDownload_UnknownID(t *testing.T) {
	srv := New(&stubEngine{}, store.New(time.Minute), Options{})

	rec := doJSON(t, srv.Router(), http.MethodGet, "/subliminal/download/opensubtitles:nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "search again") {
		t.Fatalf("Expected search-again message, got %q", rec.Body.String())
	}
}

func TestDownload_FetchFailureRetainsEntry(t *testing.T) {
	engine := &stubEngine{downloadErr: errors.New("provider quota exceeded"), content: "text"}
	st := store.New(time.Minute)
	st.Put(&subliminal.Subtitle{ProviderName: "a", ID: "1"})

	srv := New(engine, st, Options{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/subliminal/download/a:1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quota exceeded") {
		t.Fatalf("Expected underlying message, got %q", rec.Body.String())
	}

	// The entry survives the failed fetch; a retry within the TTL succeeds.
	engine.downloadErr = nil
	rec = doJSON(t, router, http.MethodGet, "/subliminal/download/a:1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Retry status = %d, want 200", rec.Code)
	}
}

func TestDownload_ConsumePolicy(t *testing.T) {
	engine := &stubEngine{content: "text"}
	st := store.New(time.Minute)
	st.Put(&subliminal.Subtitle{ProviderName: "a", ID: "1"})

	srv := New(engine, st, Options{ConsumeOnDownload: true})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/subliminal/download/a:1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}

	// The entry was consumed, so a second download reports unknown.
	rec = doJSON(t, router, http.MethodGet, "/subliminal/download/a:1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Second download status = %d, want 404", rec.Code)
	}
}

func TestDownload_RetainPolicy(t *testing.T) {
	engine := &stubEngine{content: "text"}
	st := store.New(time.Minute)
	st.Put(&subliminal.Subtitle{ProviderName: "a", ID: "1"})

	srv := New(engine, st, Options{})
	router := srv.Router()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodGet, "/subliminal/download/a:1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Download %d status = %d", i+1, rec.Code)
		}
	}
	if engine.downloadCalls != 2 {
		t.Fatalf("Expected 2 engine downloads, got %d", engine.downloadCalls)
	}
}
