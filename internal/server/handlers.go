package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/apperrors"
	"github.com/baoueb/subserver/internal/metrics"
	"github.com/baoueb/subserver/internal/models"
	"github.com/baoueb/subserver/internal/subliminal"
)

// handlePing implements GET /ping.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSearch implements POST /subliminal/search. It builds a video
// descriptor from the request, queries the engine, scores each candidate,
// registers the handles in the store, and returns the flat result list in
// provider order.
func (s *Server) handleSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if (req.Season != nil) != (req.Episode != nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season and episode must be supplied together"})
		return
	}
	if req.IsEpisode() && (*req.Season <= 0 || *req.Episode <= 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season and episode must be positive"})
		return
	}

	var video *subliminal.Video
	if req.IsEpisode() {
		video = subliminal.EpisodeFromName(fmt.Sprintf("%s S%02dE%02d", req.Title, *req.Season, *req.Episode))
	} else {
		video = subliminal.MovieFromName(req.Title)
	}

	languages := s.parseLanguages(req.Languages)

	subtitles, err := s.engine.ListSubtitles(c.Request.Context(), video, languages)
	if err != nil {
		s.logger.Error().Err(err).Str("title", req.Title).Msg("Provider query failed")
		metrics.SubtitleSearchesTotal.WithLabelValues("error").Inc()
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]models.SubtitleItem, 0, len(subtitles))
	for _, sub := range subtitles {
		score, err := s.opts.Score(sub, video)
		if err != nil {
			// One candidate failing to score never fails the batch.
			s.logger.Warn().Err(err).
				Str("provider", sub.ProviderName).
				Str("subtitle", sub.Key()).
				Msg("Skipping candidate that failed to score")
			continue
		}

		id := s.store.Put(sub)
		items = append(items, models.SubtitleItem{
			ID:       id,
			Provider: sub.ProviderName,
			Language: sub.Language.String(),
			Release:  sub.ReleaseInfo,
			Score:    score,
			Filename: sub.Filename,
		})
	}

	metrics.SubtitleSearchesTotal.WithLabelValues("success").Inc()
	s.logger.Info().
		Str("title", req.Title).
		Int("results", len(items)).
		Msg("Search completed")

	c.JSON(http.StatusOK, items)
}

// parseLanguages parses the requested codes, dropping malformed ones with a
// warning. When nothing usable remains it falls back to the configured
// default language and logs that the fallback happened.
func (s *Server) parseLanguages(codes []string) []language.Tag {
	var tags []language.Tag
	for _, code := range codes {
		tag, err := subliminal.ParseLanguage(code)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", code).Msg("Dropping unparseable language code")
			continue
		}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		fallback := language.MustParse(s.opts.DefaultLanguage)
		s.logger.Info().
			Str("language", s.opts.DefaultLanguage).
			Msg("No usable language codes in request, falling back to default")
		tags = []language.Tag{fallback}
	}
	return tags
}

// handleDownload implements GET /subliminal/download/:subtitle_id. The
// handle is borrowed from the store, never rebuilt from the identifier.
func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("subtitle_id")

	sub, err := s.store.Get(id)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues("not_found").Inc()
		if errors.Is(err, &apperrors.ErrEntryExpired{}) {
			s.logger.Info().Str("subtitle", id).Msg("Download of expired entry")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Info().Str("subtitle", id).Msg("Download of unknown entry")
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("subtitle %s not found, search again", id)})
		return
	}

	if err := s.engine.Download(c.Request.Context(), sub); err != nil {
		// The entry stays cached; the caller may retry within the TTL.
		s.logger.Error().Err(err).Str("subtitle", id).Msg("Subtitle fetch failed")
		metrics.SubtitleDownloadsTotal.WithLabelValues("error").Inc()
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.opts.ConsumeOnDownload {
		s.store.Delete(id)
	}

	metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()
	c.Data(http.StatusOK, "text/plain; charset=utf-8", sub.Content)
}
