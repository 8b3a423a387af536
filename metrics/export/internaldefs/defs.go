package internaldefs

import (
	sessiongate "github.com/jhyun-dev/sessiongate"
)

// CounterDef defines a public type used by sessiongate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by sessiongate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session core.
var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricSessionCreated, Name: "sessiongate_session_created_total", Help: "Created sessions."},
	{ID: sessiongate.MetricSessionResolved, Name: "sessiongate_session_resolved_total", Help: "Resolved requests."},
	{ID: sessiongate.MetricSessionEvicted, Name: "sessiongate_session_evicted_total", Help: "Sessions evicted by the duplicate reconciler."},
	{ID: sessiongate.MetricReconcileRuns, Name: "sessiongate_reconcile_runs_total", Help: "Duplicate reconciliation passes."},
	{ID: sessiongate.MetricReconcileFailure, Name: "sessiongate_reconcile_failure_total", Help: "Failed duplicate reconciliation passes."},
	{ID: sessiongate.MetricGateAllowed, Name: "sessiongate_gate_allowed_total", Help: "Requests admitted by access policies."},
	{ID: sessiongate.MetricGateDenied, Name: "sessiongate_gate_denied_total", Help: "Requests denied by access policies."},
	{ID: sessiongate.MetricStoreDegraded, Name: "sessiongate_store_degraded_total", Help: "Store faults absorbed by anonymous fallback."},
	{ID: sessiongate.MetricLogin, Name: "sessiongate_login_total", Help: "Member logins."},
	{ID: sessiongate.MetricLogout, Name: "sessiongate_logout_total", Help: "Member logouts."},
}

// HistogramDefs is an exported constant or variable used by the session core.
var HistogramDefs = []HistogramDef{
	{ID: sessiongate.MetricResolveLatency, Name: "sessiongate_resolve_latency_seconds", Help: "Resolve latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session core.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session core.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
