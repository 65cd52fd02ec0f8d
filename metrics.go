package sessionkit

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics system.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSignInSuccess is an exported constant or variable used by the session controller.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure is an exported constant or variable used by the session controller.
	MetricSignInFailure
	// MetricSignUpSuccess is an exported constant or variable used by the session controller.
	MetricSignUpSuccess
	// MetricSignUpFailure is an exported constant or variable used by the session controller.
	MetricSignUpFailure
	// MetricSignOut is an exported constant or variable used by the session controller.
	MetricSignOut
	// MetricRefreshSuccess is an exported constant or variable used by the session controller.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the session controller.
	MetricRefreshFailure
	// MetricRefreshLoopBreak counts forced sign-outs after a second
	// Unauthorized immediately following a successful refresh.
	MetricRefreshLoopBreak
	// MetricRestoreAuthenticated is an exported constant or variable used by the session controller.
	MetricRestoreAuthenticated
	// MetricRestoreUnauthenticated is an exported constant or variable used by the session controller.
	MetricRestoreUnauthenticated
	// MetricRestoreRefreshed is an exported constant or variable used by the session controller.
	MetricRestoreRefreshed
	// MetricStorageDegraded is an exported constant or variable used by the session controller.
	MetricStorageDegraded
	// MetricProfileUpdateSuccess is an exported constant or variable used by the session controller.
	MetricProfileUpdateSuccess
	// MetricProfileUpdateFailure is an exported constant or variable used by the session controller.
	MetricProfileUpdateFailure
	// MetricPreferencesUpdateSuccess is an exported constant or variable used by the session controller.
	MetricPreferencesUpdateSuccess
	// MetricPreferencesUpdateFailure is an exported constant or variable used by the session controller.
	MetricPreferencesUpdateFailure
	// MetricIdentityReload is an exported constant or variable used by the session controller.
	MetricIdentityReload
	// MetricAccountDeleted is an exported constant or variable used by the session controller.
	MetricAccountDeleted
	// MetricSessionBusyRejected is an exported constant or variable used by the session controller.
	MetricSessionBusyRejected

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters for session lifecycle outcomes.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time deep copy of all counters.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics may return an error when input validation, dependency calls, or security checks fail.
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled may return an error when input validation, dependency calls, or security checks fail.
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc may return an error when input validation, dependency calls, or security checks fail.
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value may return an error when input validation, dependency calls, or security checks fail.
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
