// Package otel provides OpenTelemetry metric exporter bindings for sessiongate
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// sessiongate metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [sessiongate.Core.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate core state.
package otel
