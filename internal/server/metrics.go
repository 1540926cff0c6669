package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the routing API.
type Metrics struct {
	ComputeTotal    *prometheus.CounterVec
	ComputeDuration prometheus.Histogram
	CandidateCount  prometheus.Histogram
}

// NewMetrics registers the routing instruments with the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ComputeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caproute_compute_requests_total",
				Help: "Total number of route computation requests by outcome",
			},
			[]string{"outcome"},
		),
		ComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "caproute_compute_duration_seconds",
				Help:    "Route computation latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		CandidateCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "caproute_candidate_paths",
				Help:    "Number of simple paths enumerated per computation",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
	}

	prometheus.MustRegister(m.ComputeTotal)
	prometheus.MustRegister(m.ComputeDuration)
	prometheus.MustRegister(m.CandidateCount)
	return m
}

func (m *Metrics) observeCompute(outcome string, candidates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ComputeTotal.WithLabelValues(outcome).Inc()
	m.ComputeDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		m.CandidateCount.Observe(float64(candidates))
	}
}
