/*
Package observability provides tools for monitoring dispatches.

It includes Prometheus metrics exposed both as a pipeline stage and as dispatch hooks,
OpenTelemetry tracing, and structured logging of state and action events.
*/
package observability
