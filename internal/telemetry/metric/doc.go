// Package metric provides Prometheus metrics for objhost.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry, HTTP handler and request metrics
//   - lifecycle.go: Lifecycle and object counters (nil-safe)
//   - collector.go: Scrape-time collector for server state and handle count
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
