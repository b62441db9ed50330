// Package opensubtitles implements a subtitle provider over the
// OpenSubtitles REST API (api.opensubtitles.com v1). Search hits the
// /subtitles endpoint; download is two-step: request a link for a file id,
// then fetch the file behind it.
package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/config"
	"github.com/baoueb/subserver/internal/subliminal"
)

// ProviderName is the composite-id prefix for results from this provider.
const ProviderName = "opensubtitles"

const defaultAPIURL = "https://api.opensubtitles.com/api/v1"

func init() {
	subliminal.Register(ProviderName, New)
}

type provider struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	userAgent  string
}

// New creates the OpenSubtitles provider from config.
func New(cfg subliminal.ProviderConfig) (subliminal.Provider, error) {
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &provider{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
	}, nil
}

func (p *provider) Name() string {
	return ProviderName
}

// searchResponse mirrors the fields of GET /subtitles we consume.
type searchResponse struct {
	TotalCount int `json:"total_count"`
	Data       []struct {
		ID         string `json:"id"`
		Attributes struct {
			Language string `json:"language"`
			Release  string `json:"release"`
			Files    []struct {
				FileID   int    `json:"file_id"`
				FileName string `json:"file_name"`
			} `json:"files"`
		} `json:"attributes"`
	} `json:"data"`
}

// ListSubtitles queries /subtitles with the video title and optional
// season/episode numbers. Candidates without a downloadable file are
// dropped; candidates in a language the caller did not ask for are kept out
// by the languages query parameter server-side.
func (p *provider) ListSubtitles(ctx context.Context, video *subliminal.Video, languages []language.Tag) ([]*subliminal.Subtitle, error) {
	logger := config.GetLogger()

	query := url.Values{}
	query.Set("query", video.Title)
	query.Set("languages", joinLanguages(languages))
	if video.Kind == subliminal.KindEpisode {
		query.Set("season_number", strconv.Itoa(video.Season))
		query.Set("episode_number", strconv.Itoa(video.Episode))
	}
	if video.Year != 0 {
		query.Set("year", strconv.Itoa(video.Year))
	}

	endpoint := fmt.Sprintf("%s/subtitles?%s", p.apiURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	subtitles := make([]*subliminal.Subtitle, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		if len(item.Attributes.Files) == 0 {
			logger.Debug().Str("id", item.ID).Msg("Skipping candidate without downloadable file")
			continue
		}

		tag, err := subliminal.ParseLanguage(item.Attributes.Language)
		if err != nil {
			logger.Warn().Err(err).Str("id", item.ID).Msg("Skipping candidate with unparseable language")
			continue
		}

		file := item.Attributes.Files[0]
		subtitles = append(subtitles, &subliminal.Subtitle{
			ProviderName: ProviderName,
			ID:           item.ID,
			Language:     tag,
			ReleaseInfo:  item.Attributes.Release,
			Filename:     file.FileName,
			DownloadRef:  strconv.Itoa(file.FileID),
		})
	}

	logger.Debug().
		Int("total", parsed.TotalCount).
		Int("usable", len(subtitles)).
		Msg("OpenSubtitles search completed")

	return subtitles, nil
}

// downloadResponse mirrors the fields of POST /download we consume.
type downloadResponse struct {
	Link      string `json:"link"`
	FileName  string `json:"file_name"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

// Download resolves the handle's file id to a temporary link, fetches the
// file, and attaches the raw bytes to the handle.
func (p *provider) Download(ctx context.Context, sub *subliminal.Subtitle) error {
	fileID, err := strconv.Atoi(sub.DownloadRef)
	if err != nil {
		return fmt.Errorf("invalid download reference %q: %w", sub.DownloadRef, err)
	}

	body, err := json.Marshal(map[string]int{"file_id": fileID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/download", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download link request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download link request returned status %d", resp.StatusCode)
	}

	var parsed downloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode download response: %w", err)
	}
	if parsed.Link == "" {
		return fmt.Errorf("no download link in response: %s", parsed.Message)
	}

	fileReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.Link, nil)
	if err != nil {
		return fmt.Errorf("failed to create file request: %w", err)
	}
	fileReq.Header.Set("User-Agent", p.userAgent)

	fileResp, err := p.httpClient.Do(fileReq)
	if err != nil {
		return fmt.Errorf("file fetch failed: %w", err)
	}
	defer fileResp.Body.Close()

	if fileResp.StatusCode != http.StatusOK {
		return fmt.Errorf("file fetch returned status %d", fileResp.StatusCode)
	}

	content, err := io.ReadAll(fileResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read file body: %w", err)
	}

	sub.Content = content
	if sub.Filename == "" {
		sub.Filename = parsed.FileName
	}
	return nil
}

func (p *provider) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Api-Key", p.apiKey)
	}
}

// joinLanguages renders tags as the comma-separated lowercase list the API
// expects, e.g. "en,pt-br".
func joinLanguages(languages []language.Tag) string {
	codes := make([]string, len(languages))
	for i, tag := range languages {
		codes[i] = strings.ToLower(tag.String())
	}
	return strings.Join(codes, ",")
}
