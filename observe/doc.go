// Package observe provides logging, tracing and metrics for the OAuth 2.0
// engine.
//
// Logging is backed by zap and redacts credential fields. Tracing and metrics
// use OpenTelemetry with exporters selected by configuration. An Instrumenter
// wraps each token, authorization and guard operation with a span, request
// counters and a duration histogram.
package observe
