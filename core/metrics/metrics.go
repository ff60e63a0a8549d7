// Package metrics exports the events of the receiver chain as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/ring"
)

const namespace = "nbrx"

// Metrics implements the rx.Monitor interface on top of prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	overflows       *prometheus.CounterVec
	rejectedSamples *prometheus.CounterVec
	underruns       *prometheus.CounterVec
	anomalies       *prometheus.CounterVec
	frames          *prometheus.CounterVec
	processed       *prometheus.CounterVec
	gain            prometheus.Gauge
}

// New returns a new set of metrics, registered with its own registry.
func New() *Metrics {
	result := &Metrics{
		registry: prometheus.NewRegistry(),
		overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_overflows_total",
			Help:      "Number of lossy pushes into a ring buffer.",
		}, []string{"buffer"}),
		rejectedSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_rejected_samples_total",
			Help:      "Number of samples that were dropped because a ring buffer was full.",
		}, []string{"buffer"}),
		underruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "underruns_total",
			Help:      "Number of periods a consumer had to fill with silence.",
		}, []string{"stage"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Number of non-finite samples that were replaced.",
		}, []string{"stage"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spectrum_frames_total",
			Help:      "Number of emitted spectrum frames.",
		}, []string{"view"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_samples_total",
			Help:      "Number of samples processed by a stage.",
		}, []string{"stage"}),
		gain: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agc_gain",
			Help:      "Current gain of the automatic gain control.",
		}),
	}

	result.registry.MustRegister(
		result.overflows,
		result.rejectedSamples,
		result.underruns,
		result.anomalies,
		result.frames,
		result.processed,
		result.gain,
	)

	return result
}

// Registry returns the registry that holds all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WatchBuffer exports the occupancy of a ring buffer, e.g. WatchBuffer("main", buffer.Stats).
func (m *Metrics) WatchBuffer(name string, stats func() ring.Stats) {
	m.registry.MustRegister(newBufferCollector(name, stats))
}

func (m *Metrics) Overflow(buffer string, offered, rejected int) {
	m.overflows.WithLabelValues(buffer).Inc()
	m.rejectedSamples.WithLabelValues(buffer).Add(float64(rejected))
}

func (m *Metrics) Underrun(stage string) {
	m.underruns.WithLabelValues(stage).Inc()
}

func (m *Metrics) Anomalies(stage string, count int) {
	if count <= 0 {
		return
	}
	m.anomalies.WithLabelValues(stage).Add(float64(count))
}

func (m *Metrics) Frame(view core.View) {
	m.frames.WithLabelValues(view.String()).Inc()
}

func (m *Metrics) Gain(gain float64) {
	m.gain.Set(gain)
}

func (m *Metrics) Processed(stage string, samples int) {
	m.processed.WithLabelValues(stage).Add(float64(samples))
}

type bufferCollector struct {
	stats    func() ring.Stats
	occupied *prometheus.Desc
	capacity *prometheus.Desc
}

func newBufferCollector(name string, stats func() ring.Stats) *bufferCollector {
	labels := prometheus.Labels{"buffer": name}
	return &bufferCollector{
		stats: stats,
		occupied: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "buffer", "occupied_samples"),
			"Number of samples currently held by a ring buffer.",
			nil, labels,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "buffer", "capacity_samples"),
			"Capacity of a ring buffer.",
			nil, labels,
		),
	}
}

func (c *bufferCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.occupied
	ch <- c.capacity
}

func (c *bufferCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.stats()
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(stats.Occupied))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(stats.Capacity))
}
