// Package server exposes the HTTP surface: a liveness probe, subtitle
// search, and subtitle download. Handlers translate requests into engine
// calls and register every search result in the handle store so the
// download step can reuse the exact objects the search produced.
package server

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/config"
	"github.com/baoueb/subserver/internal/metrics"
	"github.com/baoueb/subserver/internal/store"
	"github.com/baoueb/subserver/internal/subliminal"
)

// Searcher is the slice of the engine the handlers consume.
type Searcher interface {
	ListSubtitles(ctx context.Context, video *subliminal.Video, languages []language.Tag) ([]*subliminal.Subtitle, error)
	Download(ctx context.Context, sub *subliminal.Subtitle) error
}

// ScoreFunc computes the normalized relevance of one candidate.
type ScoreFunc func(sub *subliminal.Subtitle, video *subliminal.Video) (float64, error)

// Options tunes handler behavior.
type Options struct {
	// DefaultLanguage is used when no requested language code parses.
	DefaultLanguage string

	// ConsumeOnDownload removes a store entry after a successful download
	// instead of retaining it for repeat downloads.
	ConsumeOnDownload bool

	// Score overrides the scoring function; nil means NormalizedScore.
	Score ScoreFunc
}

// Server wires the engine and the handle store behind the HTTP routes.
type Server struct {
	engine Searcher
	store  *store.Store
	opts   Options
	logger zerolog.Logger
}

// New creates a Server. A zero DefaultLanguage falls back to "en".
func New(engine Searcher, st *store.Store, opts Options) *Server {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.Score == nil {
		opts.Score = subliminal.NormalizedScore
	}
	return &Server{
		engine: engine,
		store:  st,
		opts:   opts,
		logger: config.GetLogger(),
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestMiddleware())

	router.GET("/ping", s.handlePing)
	router.POST("/subliminal/search", s.handleSearch)
	router.GET("/subliminal/download/:subtitle_id", s.handleDownload)

	return router
}

// requestMiddleware logs every request, records latency metrics, and
// forwards server errors to Sentry when a DSN is configured.
func (s *Server) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.HTTPRequestDuration.
			WithLabelValues(route, c.Request.Method, statusLabel(status)).
			Observe(elapsed.Seconds())

		event := s.logger.Info()
		if status >= 500 {
			event = s.logger.Error()
			for _, ginErr := range c.Errors {
				sentry.CaptureException(ginErr.Err)
			}
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("Request handled")
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
