// Package otel publishes engine metrics as OpenTelemetry observable
// instruments. The caller owns the MeterProvider; one callback reads
// Engine.MetricsSnapshot per collection cycle.
package otel
