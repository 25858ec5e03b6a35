// Package metrics exposes Prometheus instrumentation for the asset store
// and the rendition pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives timing and outcome of store and render operations.
type Recorder interface {
	ObserveStore(op string, d time.Duration, err error)
	ObserveRender(format string, d time.Duration, err error)
}

// Noop discards everything.
type Noop struct{}

func (Noop) ObserveStore(string, time.Duration, error)  {}
func (Noop) ObserveRender(string, time.Duration, error) {}

// Collector is a Recorder backed by Prometheus histograms and counters.
type Collector struct {
	storeLatency  *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
	renderLatency *prometheus.HistogramVec
	renderErrors  *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imagegallery",
			Name:      "store_operation_seconds",
			Help:      "Latency of asset store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imagegallery",
			Name:      "store_errors_total",
			Help:      "Asset store operations that returned an error.",
		}, []string{"op"}),
		renderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imagegallery",
			Name:      "render_seconds",
			Help:      "Latency of rendition requests by requested format.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"format"}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imagegallery",
			Name:      "render_errors_total",
			Help:      "Rendition requests that failed.",
		}, []string{"format"}),
	}
	reg.MustRegister(c.storeLatency, c.storeErrors, c.renderLatency, c.renderErrors)
	return c
}

func (c *Collector) ObserveStore(op string, d time.Duration, err error) {
	c.storeLatency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		c.storeErrors.WithLabelValues(op).Inc()
	}
}

func (c *Collector) ObserveRender(format string, d time.Duration, err error) {
	c.renderLatency.WithLabelValues(format).Observe(d.Seconds())
	if err != nil {
		c.renderErrors.WithLabelValues(format).Inc()
	}
}
