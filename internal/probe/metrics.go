package probe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records probe outcomes.
type Collector interface {
	ObserveProbe(driver, code string, elapsed time.Duration)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) ObserveProbe(string, string, time.Duration) {}

// CodeOK labels successful probes.
const CodeOK = "ok"

// PrometheusCollector exposes probe counters and latencies via Prometheus.
type PrometheusCollector struct {
	probes  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheusCollector registers the probe metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	probes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pgate_probe_total",
		Help: "Probe attempts by driver and outcome code.",
	}, []string{"driver", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pgate_probe_duration_seconds",
		Help:    "Time to connect and close one probe connection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver"})

	var err error
	if probes, err = register(reg, probes); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}

	return &PrometheusCollector{probes: probes, latency: latency}, nil
}

// register adds c to reg, reusing an identical collector that is already there.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveProbe counts one probe and records its duration.
func (p *PrometheusCollector) ObserveProbe(driver, code string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.probes.WithLabelValues(driver, code).Inc()
	p.latency.WithLabelValues(driver).Observe(elapsed.Seconds())
}
