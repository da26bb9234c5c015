package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	KindImage = "image"
	KindVideo = "video"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeFlagged = "flagged"
)

// Metrics holds the collectors. Each instance owns its registry so that
// tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ClassificationsTotal *prometheus.CounterVec
	ErrorsTotal          *prometheus.CounterVec
	InferenceDuration    prometheus.Histogram
	FramesSampled        prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	AlertsDropped        prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ClassificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nsfw_classifications_total",
			Help: "The total number of classified inputs",
		}, []string{"kind", "outcome"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nsfw_errors_total",
			Help: "The total number of per-item errors by error code",
		}, []string{"kind", "code"}),
		InferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nsfw_inference_duration_seconds",
			Help:    "Duration of classifier calls",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		FramesSampled: factory.NewCounter(prometheus.CounterOpts{
			Name: "nsfw_video_frames_sampled_total",
			Help: "The total number of video frames sent to the classifier",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nsfw_score_cache_lookups_total",
			Help: "Score cache lookups by result",
		}, []string{"result"}), // hit, miss, error
		AlertsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "nsfw_alerts_dropped_total",
			Help: "Alerts dropped because the alert stream was full",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is used by tests to gather collected values.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncClassification(kind, outcome string) {
	m.ClassificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncError(kind, code string) {
	m.ErrorsTotal.WithLabelValues(kind, code).Inc()
}

func (m *Metrics) IncCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
