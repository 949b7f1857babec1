// Package telemetry builds the logger, tracer provider and Prometheus
// metrics of a connector process.
package telemetry
