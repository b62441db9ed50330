package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/baoueb/subserver/internal/cache"
	"github.com/baoueb/subserver/internal/client"
	"github.com/baoueb/subserver/internal/config"
	"github.com/baoueb/subserver/internal/metrics"
	"github.com/baoueb/subserver/internal/server"
	"github.com/baoueb/subserver/internal/store"
	"github.com/baoueb/subserver/internal/subliminal"

	// Provider registrations.
	_ "github.com/baoueb/subserver/internal/providers/feliratok"
	_ "github.com/baoueb/subserver/internal/providers/opensubtitles"
)

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Int("server_port", cfg.Server.Port).
		Str("server_address", cfg.Server.Address).
		Str("default_language", cfg.Search.DefaultLanguage).
		Strs("registered_providers", subliminal.RegisteredProviders()).
		Msg("Application started with configuration")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	httpClient := client.NewHTTPClient(cfg)
	providers := buildProviders(cfg, httpClient, logger)
	if len(providers) == 0 {
		logger.Fatal().Msg("No subtitle providers enabled")
	}

	contentCache, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           parseDuration(cfg.Cache.TTL, time.Hour, logger),
		Logger:        cacheLogger{logger},
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "subtitle_content",
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("Failed to create content cache")
	}
	defer func() {
		if err := contentCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close content cache")
		}
	}()

	engine := subliminal.NewEngine(providers, contentCache)

	resultStore := store.New(parseDuration(cfg.Search.TTL, store.DefaultTTL, logger))
	metrics.RegisterStoreGauge(resultStore.Len)

	srv := server.New(engine, resultStore, server.Options{
		DefaultLanguage:   cfg.Search.DefaultLanguage,
		ConsumeOnDownload: cfg.Search.ConsumeOnDownload,
	})

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	apiServer := &http.Server{
		Addr:    address,
		Handler: srv.Router(),
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown API server")
		}
	}()

	logger.Info().Str("address", address).Msg("Starting HTTP server")
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to serve HTTP")
	}

	logger.Info().Msg("Server stopped gracefully")
}

// buildProviders opens every provider the config enables.
func buildProviders(cfg *config.Config, httpClient *http.Client, logger zerolog.Logger) []subliminal.Provider {
	type enabled struct {
		name    string
		baseURL string
		apiKey  string
	}

	var wanted []enabled
	if cfg.Providers.OpenSubtitles.Enabled {
		wanted = append(wanted, enabled{
			name:    "opensubtitles",
			baseURL: cfg.Providers.OpenSubtitles.APIURL,
			apiKey:  cfg.Providers.OpenSubtitles.APIKey,
		})
	}
	if cfg.Providers.Feliratok.Enabled {
		wanted = append(wanted, enabled{
			name:    "feliratok",
			baseURL: cfg.Providers.Feliratok.Domain,
		})
	}

	var providers []subliminal.Provider
	for _, w := range wanted {
		provider, err := subliminal.Open(w.name, subliminal.ProviderConfig{
			HTTPClient: httpClient,
			BaseURL:    w.baseURL,
			APIKey:     w.apiKey,
			UserAgent:  config.GetUserAgent(),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", w.name).Msg("Failed to open provider, skipping")
			continue
		}
		providers = append(providers, provider)
		logger.Info().Str("provider", w.name).Msg("Provider enabled")
	}
	return providers
}

func parseDuration(value string, fallback time.Duration, logger zerolog.Logger) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("duration", value).Msg("Invalid duration, using fallback")
		return fallback
	}
	return parsed
}

// cacheLogger adapts zerolog to the cache package's Logger interface.
type cacheLogger struct {
	logger zerolog.Logger
}

func (l cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}
