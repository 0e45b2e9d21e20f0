package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle provides Prometheus metrics for the server lifecycle.
// All methods are nil-safe: calls on a nil *Lifecycle are no-ops.
type Lifecycle struct {
	// Runs counts Run calls that reached the Running state.
	Runs prometheus.Counter

	// HandleAcquires counts AcquireHandle calls.
	HandleAcquires prometheus.Counter

	// HandleReleases counts ReleaseHandle calls.
	HandleReleases prometheus.Counter

	// StopRequests counts effective stop requests by reason.
	// Label values: "last_handle", "forced", "context".
	StopRequests *prometheus.CounterVec

	// StartupFailures counts failed startups by phase.
	// Label values: "register", "announce".
	StartupFailures *prometheus.CounterVec

	// TeardownFailures counts unregistration failures during Stopping.
	TeardownFailures prometheus.Counter

	// ReclaimRuns counts reclaim hook invocations.
	ReclaimRuns prometheus.Counter

	// ReclaimFailures counts failed reclaim invocations by kind.
	// Label values: "error", "panic".
	ReclaimFailures *prometheus.CounterVec

	// ReclaimDuration observes reclaim hook latency.
	ReclaimDuration prometheus.Histogram
}

// NewLifecycle creates lifecycle metrics and registers them with reg.
// If reg is nil, metrics are created but not registered.
func NewLifecycle(reg prometheus.Registerer) *Lifecycle {
	m := &Lifecycle{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "runs_total",
			Help:      "Total number of runs that reached the Running state",
		}),
		HandleAcquires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "handle_acquires_total",
			Help:      "Total number of object handles acquired",
		}),
		HandleReleases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "handle_releases_total",
			Help:      "Total number of object handles released",
		}),
		StopRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "stop_requests_total",
			Help:      "Total number of effective stop requests by reason",
		}, []string{"reason"}),
		StartupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "startup_failures_total",
			Help:      "Total number of failed startups by phase",
		}, []string{"phase"}),
		TeardownFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "lifecycle",
			Name:      "teardown_failures_total",
			Help:      "Total number of class unregistrations that failed during teardown",
		}),
		ReclaimRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reclaim",
			Name:      "runs_total",
			Help:      "Total number of reclaim hook invocations",
		}),
		ReclaimFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reclaim",
			Name:      "failures_total",
			Help:      "Total number of failed reclaim hook invocations by kind",
		}, []string{"kind"}),
		ReclaimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "reclaim",
			Name:      "duration_seconds",
			Help:      "Reclaim hook latency in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}

	if reg != nil {
		m.Runs = registerOrReuse(reg, m.Runs).(prometheus.Counter)
		m.HandleAcquires = registerOrReuse(reg, m.HandleAcquires).(prometheus.Counter)
		m.HandleReleases = registerOrReuse(reg, m.HandleReleases).(prometheus.Counter)
		m.StopRequests = registerOrReuse(reg, m.StopRequests).(*prometheus.CounterVec)
		m.StartupFailures = registerOrReuse(reg, m.StartupFailures).(*prometheus.CounterVec)
		m.TeardownFailures = registerOrReuse(reg, m.TeardownFailures).(prometheus.Counter)
		m.ReclaimRuns = registerOrReuse(reg, m.ReclaimRuns).(prometheus.Counter)
		m.ReclaimFailures = registerOrReuse(reg, m.ReclaimFailures).(*prometheus.CounterVec)
		m.ReclaimDuration = registerOrReuse(reg, m.ReclaimDuration).(prometheus.Histogram)
	}

	return m
}

// RecordRun counts a run that reached Running.
func (m *Lifecycle) RecordRun() {
	if m == nil {
		return
	}
	m.Runs.Inc()
}

// RecordAcquire counts an acquired handle.
func (m *Lifecycle) RecordAcquire() {
	if m == nil {
		return
	}
	m.HandleAcquires.Inc()
}

// RecordRelease counts a released handle.
func (m *Lifecycle) RecordRelease() {
	if m == nil {
		return
	}
	m.HandleReleases.Inc()
}

// RecordStop counts an effective stop request.
func (m *Lifecycle) RecordStop(reason string) {
	if m == nil {
		return
	}
	m.StopRequests.WithLabelValues(reason).Inc()
}

// RecordStartupFailure counts a failed startup phase.
func (m *Lifecycle) RecordStartupFailure(phase string) {
	if m == nil {
		return
	}
	m.StartupFailures.WithLabelValues(phase).Inc()
}

// RecordTeardownFailure counts a failed unregistration.
func (m *Lifecycle) RecordTeardownFailure() {
	if m == nil {
		return
	}
	m.TeardownFailures.Inc()
}

// RecordReclaim records one reclaim invocation. kind is "" on success,
// otherwise "error" or "panic".
func (m *Lifecycle) RecordReclaim(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.ReclaimRuns.Inc()
	m.ReclaimDuration.Observe(seconds)
	if kind != "" {
		m.ReclaimFailures.WithLabelValues(kind).Inc()
	}
}

// Objects provides Prometheus metrics for the object table.
// All methods are nil-safe.
type Objects struct {
	// Created counts created objects by class.
	Created *prometheus.CounterVec

	// Released counts released objects by reason.
	// Label values: "explicit", "expired", "shutdown".
	Released *prometheus.CounterVec

	// Live tracks the number of objects currently in the table.
	Live prometheus.Gauge
}

// NewObjects creates object metrics and registers them with reg.
// If reg is nil, metrics are created but not registered.
func NewObjects(reg prometheus.Registerer) *Objects {
	m := &Objects{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "objects",
			Name:      "created_total",
			Help:      "Total number of objects created by class",
		}, []string{"class"}),
		Released: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "objects",
			Name:      "released_total",
			Help:      "Total number of objects released by reason",
		}, []string{"reason"}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "objects",
			Name:      "live",
			Help:      "Current number of live objects",
		}),
	}

	if reg != nil {
		m.Created = registerOrReuse(reg, m.Created).(*prometheus.CounterVec)
		m.Released = registerOrReuse(reg, m.Released).(*prometheus.CounterVec)
		m.Live = registerOrReuse(reg, m.Live).(prometheus.Gauge)
	}

	return m
}

// RecordCreated counts a created object.
func (m *Objects) RecordCreated(class string) {
	if m == nil {
		return
	}
	m.Created.WithLabelValues(class).Inc()
	m.Live.Inc()
}

// RecordReleased counts a released object.
func (m *Objects) RecordReleased(reason string) {
	if m == nil {
		return
	}
	m.Released.WithLabelValues(reason).Inc()
	m.Live.Dec()
}
