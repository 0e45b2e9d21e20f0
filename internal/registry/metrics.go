package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

// Collectors returns gauges describing the store. Register them once.
func (b *Badger) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "registry",
			Name:      "lsm_size_bytes",
			Help:      "Registry LSM tree size in bytes",
		}, func() float64 {
			lsm, _ := b.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "registry",
			Name:      "value_log_size_bytes",
			Help:      "Registry value log size in bytes",
		}, func() float64 {
			_, vlog := b.Size()
			return float64(vlog)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "registry",
			Name:      "gc_runs_total",
			Help:      "Total number of registry value log GC passes",
		}, func() float64 {
			return float64(b.gcRuns.Load())
		}),
	}
}
