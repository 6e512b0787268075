package diag

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duotier/duotier"
)

func TestNoopMetrics_DiscardsEverything(t *testing.T) {
	m := NoopMetrics()
	assert.NotPanics(t, func() {
		Observe(m, duotier.Stats{SlabUnitsFree: 1, SlabUnitsUsed: 2, ChunkBytesFree: 3, ChunkBytesUsed: 4, CorruptNodesRecovered: 5})
	})
}

func TestPrometheusMetrics_ObserveSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test-session")

	Observe(m, duotier.Stats{
		SlabUnitsFree:         10,
		SlabUnitsUsed:         2,
		ChunkBytesFree:        4096,
		ChunkBytesUsed:        512,
		CorruptNodesRecovered: 3,
	})

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			values[f.GetName()] = metric.GetGauge().GetValue()
		}
	}

	assert.Equal(t, float64(10), values["duotier_slab_units_free"])
	assert.Equal(t, float64(2), values["duotier_slab_units_used"])
	assert.Equal(t, float64(4096), values["duotier_chunk_bytes_free"])
	assert.Equal(t, float64(512), values["duotier_chunk_bytes_used"])
	assert.Equal(t, float64(3), values["duotier_corrupt_nodes_recovered"])
}
