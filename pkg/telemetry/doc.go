// Package telemetry provides api.Observer implementations that export
// runner activity to Prometheus and OpenTelemetry.
package telemetry
