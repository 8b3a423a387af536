// Package middleware adapts the session core to net/http handler chains.
//
// [Attach] resolves the session for every page request and injects it into
// the request context. [Require] gates a route with an access policy and
// shapes the denial by the request's declared content type: API-shaped
// requests get a 401 JSON body, everything else gets the denial view.
//
// # Architecture boundaries
//
// This package owns cookies, headers, and status codes. It never talks to
// the session store directly and never makes access decisions itself; both
// belong to the core.
//
// # What this package must NOT do
//
//   - Evaluate role or authentication rules inline (use a sessiongate.Policy).
//   - Fail a request because the store degraded; the core already turned
//     that into an anonymous session.
package middleware
