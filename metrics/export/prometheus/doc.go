// Package prometheus provides a Prometheus exporter for sessionkit metrics.
//
// [NewPrometheusExporter] accepts a [sessionkit.Controller] and exposes an
// [http.Handler] that renders all sessionkit counters in Prometheus text
// exposition format. Counter names are prefixed sessionkit_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate controller state.
package prometheus
