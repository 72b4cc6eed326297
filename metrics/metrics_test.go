package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.SnapshotCount.Inc()
	m.LastSnapshotHeight.Set(4)
	m.SetLastSnapshotHash("abc")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestSetLastSnapshotHashSwapsActiveSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.SetLastSnapshotHash("first")
	m.SetLastSnapshotHash("second")

	require.Equal(t, float64(1), gaugeValue(t, m.LastSnapshotHash.WithLabelValues("second")))
	require.Equal(t, float64(0), gaugeValue(t, m.LastSnapshotHash.WithLabelValues("first")))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, g.Write(&pb))
	return pb.GetGauge().GetValue()
}
