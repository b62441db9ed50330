package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Search and download metrics
var (
	SubtitleSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_searches_total",
			Help: "Total number of subtitle searches.",
		},
		[]string{"status"},
	)

	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)

	// HTTPRequestDuration tracks request latency per route and status code.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		SubtitleSearchesTotal,
		SubtitleDownloadsTotal,
		HTTPRequestDuration,
	)
}

// RegisterStoreGauge exposes the current number of pending search-result
// entries via a lazily evaluated gauge.
func RegisterStoreGauge(lenFunc func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "subtitle_store_entries",
			Help: "Current number of cached search-result handles.",
		},
		func() float64 { return float64(lenFunc()) },
	))
}
