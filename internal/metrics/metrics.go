package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the report service metrics on a private registry.
type Registry struct {
	reg *prometheus.Registry

	DedupInput        *prometheus.CounterVec
	DedupDropped      *prometheus.CounterVec
	NormalizeDuration *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	ReportsWritten    *prometheus.CounterVec
	EventsFailed      prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	dedupInput := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_dedup_input_total",
		Help: "Raw reports fed into deduplication.",
	}, []string{"type"})
	dedupDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_dedup_dropped_total",
		Help: "Older duplicate reports discarded by deduplication.",
	}, []string{"type"})
	normalizeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qc_normalize_duration_seconds",
		Help:    "Time to fetch, deduplicate and normalize one report type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "qc_cache_hits_total"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "qc_cache_misses_total"})
	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_reports_written_total",
		Help: "Report writes by operation.",
	}, []string{"op"})
	eventsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "qc_events_failed_total"})

	r.MustRegister(dedupInput, dedupDropped, normalizeDuration, cacheHits, cacheMisses, written, eventsFailed)
	return &Registry{
		reg:               r,
		DedupInput:        dedupInput,
		DedupDropped:      dedupDropped,
		NormalizeDuration: normalizeDuration,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
		ReportsWritten:    written,
		EventsFailed:      eventsFailed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
