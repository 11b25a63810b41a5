package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchsource_renders_total",
		Help: "Total number of watch documents rendered, labelled by format and status.",
	}, []string{"format", "status"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "watchsource_render_duration_ms",
		Help:    "Latency of rendering one watch document in milliseconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	}, []string{"format"})

	RenderCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchsource_render_cache_hits_total",
		Help: "Total number of documents served from the render cache.",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchsource_exports_total",
		Help: "Total number of bulk exports, labelled by status.",
	}, []string{"status"})

	ExportQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchsource_export_queue_depth",
		Help: "Render jobs waiting for an export worker.",
	})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchsource_catalog_reloads_total",
		Help: "Total number of catalog reloads, labelled by status.",
	}, []string{"status"})

	CatalogWatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchsource_catalog_watches",
		Help: "Number of watches in the active catalog.",
	})
)
