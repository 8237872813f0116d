package observe

import "go.opentelemetry.io/otel/attribute"

// Operation names used in span names, metric attributes and logs.
const (
	OpRetrieve = "retrieve"
	OpUpdate   = "update"
	OpAction   = "action"
)

// ResourceMeta describes the entity a telemetry record is about.
//
// Credential is a fingerprint of the bearer token. Raw tokens must never be
// placed here.
type ResourceMeta struct {
	Href       string
	Credential string
	Operation  string
	Method     string // HTTP method, set for actions
}

// SpanName returns the span name for the operation: entity.<operation>.
func (m ResourceMeta) SpanName() string {
	if m.Operation == "" {
		return "entity." + OpRetrieve
	}
	return "entity." + m.Operation
}

func (m ResourceMeta) operation() string {
	if m.Operation == "" {
		return OpRetrieve
	}
	return m.Operation
}

func (m ResourceMeta) fields() []Field {
	fields := []Field{
		{Key: "entity.href", Value: m.Href},
		{Key: "entity.operation", Value: m.operation()},
	}
	if m.Credential != "" {
		fields = append(fields, Field{Key: "entity.credential", Value: m.Credential})
	}
	if m.Method != "" {
		fields = append(fields, Field{Key: "http.method", Value: m.Method})
	}
	return fields
}

func (m ResourceMeta) spanAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("entity.href", m.Href),
		attribute.String("entity.operation", m.operation()),
		attribute.Bool("entity.error", false),
	}
	if m.Credential != "" {
		attrs = append(attrs, attribute.String("entity.credential", m.Credential))
	}
	if m.Method != "" {
		attrs = append(attrs, attribute.String("http.request.method", m.Method))
	}
	return attrs
}
