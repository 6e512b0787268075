package diag

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/duotier/duotier"
)

// MetricsHandle reports the same occupancy counts Printer prints, as
// gauges/counters for a metrics backend instead of text. Per the allocator's
// stance that it exposes no statistics beyond what its print routines
// surface, this interface's methods mirror duotier.Stats field for field.
type MetricsHandle interface {
	SetSlabUnitsFree(n int)
	SetSlabUnitsUsed(n int)
	SetChunkBytesFree(n int)
	SetChunkBytesUsed(n int)
	SetCorruptNodesRecovered(n int)
}

// noopMetrics discards every observation; it is the default when no metrics
// backend is configured, keeping the allocator's diagnostics entirely
// optional.
type noopMetrics struct{}

// NoopMetrics returns a MetricsHandle that discards everything it is given.
func NoopMetrics() MetricsHandle { return noopMetrics{} }

func (noopMetrics) SetSlabUnitsFree(int)         {}
func (noopMetrics) SetSlabUnitsUsed(int)         {}
func (noopMetrics) SetChunkBytesFree(int)        {}
func (noopMetrics) SetChunkBytesUsed(int)        {}
func (noopMetrics) SetCorruptNodesRecovered(int) {}

// prometheusMetrics reports occupancy as gauges labeled by allocator session
// id, so metrics from multiple instances in one process don't collide.
type prometheusMetrics struct {
	slabFree, slabUsed             prometheus.Gauge
	chunkBytesFree, chunkBytesUsed prometheus.Gauge
	recoveries                    prometheus.Gauge
}

// NewPrometheusMetrics registers one gauge per occupancy count, labeled with
// sessionID, against reg.
func NewPrometheusMetrics(reg prometheus.Registerer, sessionID string) MetricsHandle {
	labels := prometheus.Labels{"allocator_id": sessionID}
	m := &prometheusMetrics{
		slabFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duotier", Name: "slab_units_free", Help: "Free slab-tier units.", ConstLabels: labels,
		}),
		slabUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duotier", Name: "slab_units_used", Help: "Used slab-tier units.", ConstLabels: labels,
		}),
		chunkBytesFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duotier", Name: "chunk_bytes_free", Help: "Free chunk-tier bytes.", ConstLabels: labels,
		}),
		chunkBytesUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duotier", Name: "chunk_bytes_used", Help: "Used chunk-tier bytes.", ConstLabels: labels,
		}),
		recoveries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duotier", Name: "corrupt_nodes_recovered", Help: "Corruption-recovery walks performed.", ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.slabFree, m.slabUsed, m.chunkBytesFree, m.chunkBytesUsed, m.recoveries)
	return m
}

func (m *prometheusMetrics) SetSlabUnitsFree(n int)         { m.slabFree.Set(float64(n)) }
func (m *prometheusMetrics) SetSlabUnitsUsed(n int)         { m.slabUsed.Set(float64(n)) }
func (m *prometheusMetrics) SetChunkBytesFree(n int)        { m.chunkBytesFree.Set(float64(n)) }
func (m *prometheusMetrics) SetChunkBytesUsed(n int)        { m.chunkBytesUsed.Set(float64(n)) }
func (m *prometheusMetrics) SetCorruptNodesRecovered(n int) { m.recoveries.Set(float64(n)) }

// Observe pushes every count from s into h in one call.
func Observe(h MetricsHandle, s duotier.Stats) {
	h.SetSlabUnitsFree(s.SlabUnitsFree)
	h.SetSlabUnitsUsed(s.SlabUnitsUsed)
	h.SetChunkBytesFree(s.ChunkBytesFree)
	h.SetChunkBytesUsed(s.ChunkBytesUsed)
	h.SetCorruptNodesRecovered(s.CorruptNodesRecovered)
}
