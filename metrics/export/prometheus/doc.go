// Package prometheus renders sessiongate metrics in Prometheus text exposition
// format without taking a dependency on the Prometheus client library.
//
// [NewPrometheusExporter] reads [sessiongate.Core.MetricsSnapshot] on each
// scrape; nothing is cached between scrapes.
//
// # What this package must NOT do
//
//   - Mutate core state.
//   - Own an HTTP server; callers mount [PrometheusExporter.Handler].
package prometheus
