// Package metrics exposes Prometheus instrumentation for uploads, retries
// and file-handle resolutions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	uploadBytesTotal prometheus.Counter
	retryWaitsTotal  prometheus.Counter
	resolutionsTotal *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewCollector creates a collector backed by its own registry so tests can
// instantiate collectors independently.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "img2tg_uploads_total",
				Help: "Uploaded files by outcome",
			},
			[]string{"outcome"},
		),
		uploadBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "img2tg_upload_bytes_total",
				Help: "Total bytes forwarded to the messaging platform",
			},
		),
		retryWaitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "img2tg_retry_waits_total",
				Help: "Backoff waits taken after rate-limited calls",
			},
		),
		resolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "img2tg_file_resolutions_total",
				Help: "File handle to URL resolutions by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "img2tg_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}
}

func (c *Collector) ObserveUpload(outcome string, files int) {
	c.uploadsTotal.WithLabelValues(outcome).Add(float64(files))
}

func (c *Collector) AddUploadBytes(n int) {
	c.uploadBytesTotal.Add(float64(n))
}

func (c *Collector) IncRetryWait() {
	c.retryWaitsTotal.Inc()
}

func (c *Collector) ObserveResolution(resolved bool) {
	outcome := "resolved"
	if !resolved {
		outcome = "unresolved"
	}
	c.resolutionsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRequest(route string, status int, elapsed time.Duration) {
	c.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
