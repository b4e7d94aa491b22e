package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	DetectionsCreated *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
	StreamDropped     prometheus.Counter
	UploadsSaved      prometheus.Counter
	UploadBytes       prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "platewatch_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "platewatch_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DetectionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "platewatch_detections_created_total",
			Help: "Detections accepted by direction",
		}, []string{"direction"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "platewatch_stream_subscribers",
			Help: "Currently connected live detection listeners",
		}),
		StreamDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "platewatch_stream_dropped_total",
			Help: "Detections not delivered to a listener whose buffer was full",
		}),
		UploadsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "platewatch_uploads_saved_total",
			Help: "Files written to the upload directory",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "platewatch_upload_bytes_total",
			Help: "Decoded bytes written to the upload directory",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.DetectionsCreated,
		m.StreamSubscribers,
		m.StreamDropped,
		m.UploadsSaved,
		m.UploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
