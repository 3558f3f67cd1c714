// Package prometheus renders credauth metrics in Prometheus text exposition
// format.
//
// [NewExporter] accepts a [credauth.Engine] and exposes an [http.Handler]
// that renders every counter plus the authenticate latency histogram.
// Counter names are prefixed credauth_*_total; the single histogram is
// credauth_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
