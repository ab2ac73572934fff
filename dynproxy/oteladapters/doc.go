// Package oteladapters implements the dynproxy observability interfaces on top of OpenTelemetry.
//
// Use them with reflectengine.WithContextualLogger, reflectengine.WithMetrics and
// reflectengine.WithTracing, or with the interceptors package, to get proxy construction
// and proxied calls reported through the global or an explicit OpenTelemetry provider.
package oteladapters
