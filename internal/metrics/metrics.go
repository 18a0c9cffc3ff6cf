// Package metrics provides Prometheus metrics for folio.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/dircache"
)

var (
	// Cache lookups by outcome: hit, miss, refresh.
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_lookups_total",
			Help: "Per-file cache lookups by outcome",
		},
		[]string{"dir", "outcome"},
	)

	cacheFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_failures_total",
			Help: "Aborted collection scans by error kind",
		},
		[]string{"dir", "kind"},
	)

	cacheScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_cache_scan_duration_seconds",
			Help:    "Time to produce the full article collection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dir"},
	)

	cacheScanFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_cache_scan_files",
			Help: "Number of files enumerated by the last scan",
		},
		[]string{"dir"},
	)

	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_cache_entries",
			Help: "Number of parsed articles held in memory",
		},
		[]string{"dir"},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Recorder implements dircache.Metrics for one directory.
type Recorder struct {
	dir string
}

// NewRecorder returns a Recorder labelling every series with dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

func (r *Recorder) Hit()     { cacheLookupsTotal.WithLabelValues(r.dir, "hit").Inc() }
func (r *Recorder) Miss()    { cacheLookupsTotal.WithLabelValues(r.dir, "miss").Inc() }
func (r *Recorder) Refresh() { cacheLookupsTotal.WithLabelValues(r.dir, "refresh").Inc() }

func (r *Recorder) Failure(kind apperr.Kind) {
	cacheFailuresTotal.WithLabelValues(r.dir, kind.String()).Inc()
}

func (r *Recorder) ObserveScan(d time.Duration, files int) {
	cacheScanDuration.WithLabelValues(r.dir).Observe(d.Seconds())
	cacheScanFiles.WithLabelValues(r.dir).Set(float64(files))
}

func (r *Recorder) SetEntries(n int) {
	cacheEntries.WithLabelValues(r.dir).Set(float64(n))
}

var _ dircache.Metrics = (*Recorder)(nil)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
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
