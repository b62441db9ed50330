// Package feliratok implements a subtitle provider that scrapes the
// feliratok.eu search pages. There is no API: search results are an HTML
// table and downloads are plain file responses behind an action URL.
package feliratok

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/config"
	"github.com/baoueb/subserver/internal/subliminal"
)

// ProviderName is the composite-id prefix for results from this provider.
const ProviderName = "feliratok"

const defaultDomain = "https://www.feliratok.eu"

func init() {
	subliminal.Register(ProviderName, New)
}

type provider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates the feliratok provider from config.
func New(cfg subliminal.ProviderConfig) (subliminal.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDomain
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &provider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  cfg.UserAgent,
	}, nil
}

func (p *provider) Name() string {
	return ProviderName
}

// ListSubtitles fetches the search page for the video title and parses the
// result table. The site cannot filter by language server-side, so rows in
// languages the caller did not request are dropped here.
func (p *provider) ListSubtitles(ctx context.Context, video *subliminal.Video, languages []language.Tag) ([]*subliminal.Subtitle, error) {
	logger := config.GetLogger()

	query := url.Values{}
	search := video.Title
	if video.Kind == subliminal.KindEpisode {
		search = fmt.Sprintf("%s S%02dE%02d", video.Title, video.Season, video.Episode)
	}
	query.Set("search", search)

	endpoint := fmt.Sprintf("%s/index.php?%s", p.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	subtitles, err := parseResults(resp.Body)
	if err != nil {
		return nil, err
	}

	filtered := make([]*subliminal.Subtitle, 0, len(subtitles))
	for _, sub := range subtitles {
		if !requested(sub.Language, languages) {
			continue
		}
		filtered = append(filtered, sub)
	}

	logger.Debug().
		Str("search", search).
		Int("parsed", len(subtitles)).
		Int("usable", len(filtered)).
		Msg("Feliratok search completed")

	return filtered, nil
}

// Download fetches the file behind the handle's stored action URL.
func (p *provider) Download(ctx context.Context, sub *subliminal.Subtitle) error {
	endpoint := p.baseURL + sub.DownloadRef
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read download body: %w", err)
	}

	sub.Content = content
	return nil
}

func requested(actual language.Tag, languages []language.Tag) bool {
	for _, req := range languages {
		if subliminal.LanguageMatches(req, actual) {
			return true
		}
	}
	return false
}
