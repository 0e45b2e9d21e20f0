// Package metric provides Prometheus metrics for objhost.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric exported by objhost.
const Namespace = "objhost"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	Lifecycle *Lifecycle
	Objects   *Objects

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime, process and objhost
// metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry:  reg,
		Lifecycle: NewLifecycle(reg),
		Objects:   NewObjects(reg),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.RequestsTotal, r.RequestDuration)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registerer for extra collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// RecordRequest counts one completed HTTP request.
func (r *Registry) RecordRequest(method, route, code string) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, route, code).Inc()
}

// ObserveRequestDuration records the latency of one HTTP request.
func (r *Registry) ObserveRequestDuration(method, route string, seconds float64) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// registerOrReuse registers c, or returns the collector already registered
// under the same descriptor.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
