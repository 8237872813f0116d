// Package observe provides the logging, metrics and tracing used by the
// entity store and its collaborators.
//
// It is a pure instrumentation library. The store, the transport client and
// the action executor accept a Middleware or Logger and never talk to
// OpenTelemetry or zerolog directly.
package observe
