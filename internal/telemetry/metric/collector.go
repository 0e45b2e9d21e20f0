// Package metric provides Prometheus metrics for objhost.
package metric

import "github.com/prometheus/client_golang/prometheus"

// StatusSource reports the live lifecycle state at scrape time.
type StatusSource interface {
	StateName() string
	ActiveCount() int64
}

// States lists every state name exported by the collector.
var States = []string{"idle", "starting", "running", "stopping"}

// Collector exports the current server state and outstanding handle count
// by reading them from a StatusSource on every scrape.
type Collector struct {
	src         StatusSource
	stateDesc   *prometheus.Desc
	handlesDesc *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src StatusSource) *Collector {
	return &Collector{
		src: src,
		stateDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "lifecycle", "state"),
			"Current lifecycle state (1 for the active state)",
			[]string{"state"}, nil,
		),
		handlesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "lifecycle", "active_handles"),
			"Current number of outstanding object handles",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.handlesDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	current := c.src.StateName()
	for _, s := range States {
		v := 0.0
		if s == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, v, s)
	}
	ch <- prometheus.MustNewConstMetric(c.handlesDesc, prometheus.GaugeValue, float64(c.src.ActiveCount()))
}
