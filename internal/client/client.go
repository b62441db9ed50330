// Package client builds the HTTP client shared by all subtitle providers:
// timeout and proxy from config, response decompression, and a retry policy
// for transient provider errors. Retries live here, inside the engine's
// black box; the HTTP handlers above it never retry.
package client

import (
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go/failsafehttp"

	"github.com/baoueb/subserver/internal/config"
)

// NewHTTPClient creates the provider-facing HTTP client from config.
func NewHTTPClient(cfg *config.Config) *http.Client {
	logger := config.GetLogger()

	// Parse timeout duration
	timeout := 30 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		} else {
			timeout = parsedTimeout
		}
	}

	// Clone DefaultTransport to preserve its settings (connection pooling, HTTP/2, etc.)
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// Decompression first, then retries around the whole exchange.
	transport := newCompressionTransport(baseTransport)

	retryPolicy := failsafehttp.NewRetryPolicyBuilder().
		WithBackoff(time.Second, 10*time.Second).
		WithMaxRetries(2).
		Build()

	return &http.Client{
		Timeout:   timeout,
		Transport: failsafehttp.NewRoundTripper(transport, retryPolicy),
	}
}
