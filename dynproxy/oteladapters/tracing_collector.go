package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// TracingCollector implements dynproxy.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector uses tracer, typically obtained from a TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, dynproxy.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan ends spans started by this collector; other SpanContext implementations are ignored.
func (t *TracingCollector) FinishSpan(spanCtx dynproxy.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(attributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// Span exposes the wrapped span, e.g. to record events on it.
func (s *OTelSpanContext) Span() trace.Span { return s.span }

// SetStatus maps the status words used by dynproxy and its interceptors to span status codes.
// Unknown words are kept as a "status" attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case "ok", "success":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed":
		s.span.SetStatus(codes.Error, "proxied operation failed")
	case "panic":
		s.span.SetStatus(codes.Error, "proxied operation panicked")
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "proxied operation canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "proxied operation timed out")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var (
	_ dynproxy.TracingCollector = (*TracingCollector)(nil)
	_ dynproxy.SpanContext      = (*OTelSpanContext)(nil)
)
