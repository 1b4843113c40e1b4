// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the simulator and its network surfaces.
package observability
