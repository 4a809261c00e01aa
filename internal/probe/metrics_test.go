package probe

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNoopCollector(t *testing.T) {
	c := Noop()
	require.NotNil(t, c)
	c.ObserveProbe("postgres", CodeOK, time.Millisecond)
}

func TestPrometheusCollector_RegistersAndReuses(t *testing.T) {
	reg := prometheus.NewRegistry()

	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	c.ObserveProbe("mysql", "28P01", 10*time.Millisecond)

	again, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.Same(t, c.probes, again.probes)
	again.ObserveProbe("mysql", "28P01", 10*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	total := byName["pgate_probe_total"]
	require.NotNil(t, total)
	require.Len(t, total.Metric, 1)
	require.Equal(t, 2.0, total.Metric[0].GetCounter().GetValue())

	latency := byName["pgate_probe_duration_seconds"]
	require.NotNil(t, latency)
	require.Equal(t, uint64(2), latency.Metric[0].GetHistogram().GetSampleCount())
}

func TestPrometheusCollector_NilSafe(t *testing.T) {
	var c *PrometheusCollector
	c.ObserveProbe("postgres", CodeOK, time.Second)
}
