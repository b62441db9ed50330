package subliminal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/apperrors"
	"github.com/baoueb/subserver/internal/cache"
	"github.com/baoueb/subserver/internal/config"
)

// Engine queries all configured providers for a video and downloads the
// file behind a previously returned handle. It is the boundary the HTTP
// layer talks to; everything provider-specific stays behind it.
type Engine struct {
	providers    []Provider
	contentCache cache.Cache // optional, caches normalized payloads per composite id
}

// NewEngine creates an engine over the given providers. contentCache may be
// nil, in which case every download goes to the provider.
func NewEngine(providers []Provider, contentCache cache.Cache) *Engine {
	return &Engine{
		providers:    providers,
		contentCache: contentCache,
	}
}

// ListSubtitles fans the query out to every provider in parallel and
// aggregates the candidates. A single provider failing is logged and
// tolerated; the call only errors when every provider failed, so a flaky
// source cannot blank out results from the healthy ones.
func (e *Engine) ListSubtitles(ctx context.Context, video *Video, languages []language.Tag) ([]*Subtitle, error) {
	logger := config.GetLogger()

	if len(e.providers) == 0 {
		return nil, errors.New("no subtitle providers configured")
	}

	type providerResult struct {
		subtitles []*Subtitle
		err       error
	}

	results := make([]providerResult, len(e.providers))
	var wg sync.WaitGroup
	wg.Add(len(e.providers))

	for i, p := range e.providers {
		i, p := i, p
		go func() {
			defer wg.Done()

			subtitles, err := p.ListSubtitles(ctx, video, languages)
			if err != nil {
				results[i] = providerResult{err: &apperrors.ErrProviderFailure{Provider: p.Name(), Err: err}}
				return
			}
			results[i] = providerResult{subtitles: subtitles}
		}()
	}

	wg.Wait()

	var all []*Subtitle
	var failures []error
	for _, result := range results {
		if result.err != nil {
			logger.Warn().Err(result.err).Msg("Provider query failed")
			failures = append(failures, result.err)
			continue
		}
		all = append(all, result.subtitles...)
	}

	if len(failures) == len(e.providers) {
		return nil, errors.Join(failures...)
	}

	logger.Info().
		Str("title", video.Title).
		Str("kind", video.Kind.String()).
		Int("providers", len(e.providers)).
		Int("candidates", len(all)).
		Msg("Provider query completed")

	return all, nil
}

// Download attaches UTF-8 subtitle text to the handle's Content field,
// dispatching to the provider that produced it. Payloads are cached per
// composite id so repeat downloads within the cache TTL skip provider I/O.
func (e *Engine) Download(ctx context.Context, sub *Subtitle) error {
	logger := config.GetLogger()
	key := sub.Key()

	if e.contentCache != nil {
		if content, ok := e.contentCache.Get(key); ok {
			logger.Debug().Str("subtitle", key).Msg("Serving subtitle content from cache")
			sub.Content = content
			return nil
		}
	}

	provider := e.providerByName(sub.ProviderName)
	if provider == nil {
		return fmt.Errorf("no provider %q for subtitle %s", sub.ProviderName, key)
	}

	if err := provider.Download(ctx, sub); err != nil {
		return &apperrors.ErrProviderFailure{Provider: sub.ProviderName, Err: err}
	}

	content, err := NormalizeContent(sub.Content)
	if err != nil {
		return fmt.Errorf("failed to normalize subtitle %s: %w", key, err)
	}
	sub.Content = content

	if e.contentCache != nil {
		e.contentCache.Set(key, content)
	}

	logger.Info().Str("subtitle", key).Int("size", len(content)).Msg("Subtitle downloaded")
	return nil
}

func (e *Engine) providerByName(name string) Provider {
	for _, p := range e.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
