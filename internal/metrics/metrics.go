// Package metrics records exchange outcomes with Prometheus collectors on a
// private registry. A CLI run can flush the registry to a node-exporter
// textfile so that scheduled submissions show up in monitoring.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "specgen"

// Metrics implements exchange.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	exchangesTotal  *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	downloadBytes   prometheus.Histogram
	inFlight        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Upload exchanges by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Time from sending the upload to receiving the full response.",
			// generation calls an LLM several times, so minutes are normal
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	m.downloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_size_bytes",
			Help:      "Size of downloaded artifacts.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB .. 16MB
		},
	)

	m.inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exchanges_in_flight",
			Help:      "Exchanges currently waiting for a response.",
		},
	)

	m.registry.MustRegister(m.exchangesTotal, m.durationSeconds, m.downloadBytes, m.inFlight)
	return m
}

func (m *Metrics) ExchangeStarted(mode string) {
	m.inFlight.Inc()
}

func (m *Metrics) ExchangeFinished(mode, outcome string, elapsed time.Duration, downloadedBytes int64) {
	m.exchangesTotal.WithLabelValues(mode, outcome).Inc()

	// validation failures never started
	if outcome == "validation_error" {
		return
	}
	m.inFlight.Dec()
	m.durationSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
	if downloadedBytes > 0 {
		m.downloadBytes.Observe(float64(downloadedBytes))
	}
}

// WriteTextfile writes the registry in the text exposition format. The write
// goes through a temporary file so that a collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
