// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChartRenders counts chart renders by card kind.
	ChartRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "chart_renders_total",
		Help:      "Chart renders by metric type.",
	}, []string{"metric_type"})

	// ChartRenderErrors counts failed chart renders by card kind.
	ChartRenderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "chart_render_errors_total",
		Help:      "Failed chart renders by metric type.",
	}, []string{"metric_type"})

	// ChartCacheHits counts chart renders served from the render cache.
	ChartCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "chart_cache_hits_total",
		Help:      "Chart renders served from the render cache.",
	})

	// CardEventsEmitted counts lifecycle events published to the card stream.
	CardEventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "card_events_emitted_total",
		Help:      "Card lifecycle events published, by action.",
	}, []string{"action"})
)
