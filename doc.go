// Package sessiongate provides the session and access-control core for a
// server-rendered content site: session lifecycle over a shared store,
// client-context classification, single-session-per-member reconciliation,
// and role-based route gating with content-type-aware denial responses.
//
// The package is designed for concurrent server workloads: Core methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Consistency model
//
// The session store is the only shared mutable resource. The duplicate
// session reconciler is eventually consistent by design: a displaced session
// stays technically valid until reconciliation next fires, and two sessions
// of one member racing through the pass is a benign, accepted race. Callers
// that need strict single-session enforcement must layer it on top; this
// package only promises best-effort eviction.
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Core], [Builder], [Config],
// the access policies, and the response negotiator. Persistence lives in the
// session subpackage, client classification in clientinfo, and HTTP adapters
// in middleware.
//
// # What this package must NOT do
//
//   - Render views or own template state (collaborator concern).
//   - Perform OAuth token exchange or member persistence.
//   - Fail a request because reconciliation or a store write failed; every
//     failure path degrades to "treat as anonymous" or "deny access".
package sessiongate
