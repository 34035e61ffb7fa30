// Package prometheus exposes engine metrics to client_golang.
//
// [Collector] reads Engine.MetricsSnapshot on every scrape and emits one
// counter per engine outcome (goaccount_*_total) plus the
// goaccount_validate_latency_seconds histogram. Nothing is registered in the
// global registry; [Handler] builds a private one.
package prometheus
