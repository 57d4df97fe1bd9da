// Package metrics implements the Metrics component (C10): the per-scan
// counters and timings of §4.10, plus an additive Prometheus exposition so
// a long-running wrapper (e.g. a CI sidecar) can scrape scan history —
// enrichment beyond spec.md, never influencing scan outcome.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/d-oit/code-guardian/internal/result"
)

// Recorder mirrors each completed scan's result.Metrics into a set of
// Prometheus gauges/counters on its own registry, independent of any
// global default registry so embedding Code-Guardian as a library never
// collides with a host process's own metrics.
type Recorder struct {
	registry *prometheus.Registry

	scansTotal      prometheus.Counter
	scanDuration    prometheus.Histogram
	filesScanned    prometheus.Counter
	filesSkipped    *prometheus.CounterVec
	matchesTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	throughput      prometheus.Gauge
}

// NewRecorder constructs a Recorder with its own Prometheus registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.scansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeguardian_scans_total",
		Help: "Total number of completed scans.",
	})
	r.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "codeguardian_scan_duration_seconds",
		Help:    "Wall-clock duration of a scan.",
		Buckets: prometheus.DefBuckets,
	})
	r.filesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeguardian_files_scanned_total",
		Help: "Total number of files scanned across all scans.",
	})
	r.filesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeguardian_files_skipped_total",
		Help: "Total number of files skipped, by reason.",
	}, []string{"reason"})
	r.matchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeguardian_matches_total",
		Help: "Total number of matches produced, by severity.",
	}, []string{"severity"})
	r.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeguardian_cache_hits_total",
		Help: "Total result-cache hits.",
	})
	r.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeguardian_cache_misses_total",
		Help: "Total result-cache misses.",
	})
	r.throughput = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "codeguardian_throughput_files_per_second",
		Help: "Files-per-second throughput of the most recent scan.",
	})

	r.registry.MustRegister(
		r.scansTotal, r.scanDuration, r.filesScanned, r.filesSkipped,
		r.matchesTotal, r.cacheHits, r.cacheMisses, r.throughput,
	)
	return r
}

// Observe folds a completed scan's Metrics into the Prometheus series.
// Never returns an error and never affects the scan's own outcome.
func (r *Recorder) Observe(m result.Metrics) {
	r.scansTotal.Inc()
	r.scanDuration.Observe(float64(m.ScanDurationMS) / 1000.0)
	r.filesScanned.Add(float64(m.FilesScanned))
	r.filesSkipped.WithLabelValues("permission").Add(float64(m.FilesSkippedPermission))
	r.filesSkipped.WithLabelValues("too_large").Add(float64(m.FilesSkippedTooLarge))
	r.filesSkipped.WithLabelValues("encoding").Add(float64(m.FilesSkippedEncoding))
	r.matchesTotal.WithLabelValues("critical").Add(float64(m.MatchesCritical))
	r.matchesTotal.WithLabelValues("high").Add(float64(m.MatchesHigh))
	r.matchesTotal.WithLabelValues("medium").Add(float64(m.MatchesMedium))
	r.matchesTotal.WithLabelValues("low").Add(float64(m.MatchesLow))
	r.matchesTotal.WithLabelValues("info").Add(float64(m.MatchesInfo))
	r.cacheHits.Add(float64(m.CacheHits))
	r.cacheMisses.Add(float64(m.CacheMisses))
	r.throughput.Set(m.ThroughputFilesPerSecond())
}

// Handler returns an http.Handler exposing the Prometheus text exposition
// format for this Recorder's registry, for embedding in an out-of-scope
// CLI shell or CI sidecar.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
