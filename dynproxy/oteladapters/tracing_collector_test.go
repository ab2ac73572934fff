package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/oteladapters"
	"github.com/AntonStoeckl/dynamic-proxy-go/testutil/testdoubles"
)

func newTracing(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_RecordsSpanWithAttributes(t *testing.T) {
	collector, exporter := newTracing(t)

	ctx, span := collector.StartSpan(context.Background(), "dynproxy.call", map[string]string{"method": "Greet"})
	assert.NotEqual(t, context.Background(), ctx)

	span.AddAttribute("attempt", "1")
	collector.FinishSpan(span, "success", map[string]string{"result": "ok"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	stub := spans[0]
	assert.Equal(t, "dynproxy.call", stub.Name)
	assert.Equal(t, codes.Ok, stub.Status.Code)

	for key, want := range map[string]string{"method": "Greet", "attempt": "1", "result": "ok"} {
		got, ok := spanAttribute(stub, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func Test_TracingCollector_MapsStatuses(t *testing.T) {
	testCases := []struct {
		status   string
		wantCode codes.Code
		wantAttr bool
	}{
		{status: "success", wantCode: codes.Ok},
		{status: "error", wantCode: codes.Error},
		{status: "panic", wantCode: codes.Error},
		{status: "canceled", wantCode: codes.Error},
		{status: "timeout", wantCode: codes.Error},
		{status: "partial", wantCode: codes.Unset, wantAttr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			collector, exporter := newTracing(t)

			_, span := collector.StartSpan(context.Background(), "op", nil)
			collector.FinishSpan(span, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.wantCode, spans[0].Status.Code)

			status, ok := spanAttribute(spans[0], "status")
			assert.Equal(t, tc.wantAttr, ok)
			if tc.wantAttr {
				assert.Equal(t, tc.status, status)
			}
		})
	}
}

func Test_TracingCollector_NestsChildSpans(t *testing.T) {
	collector, exporter := newTracing(t)

	ctx, parent := collector.StartSpan(context.Background(), "parent", nil)
	_, child := collector.StartSpan(ctx, "child", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	collector, exporter := newTracing(t)

	assert.NotPanics(t, func() {
		collector.FinishSpan(&testdoubles.SpySpanContext{}, "success", nil)
		collector.FinishSpan(nil, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())

	_, span := collector.StartSpan(context.Background(), "op", nil)
	otelSpan := span.(*oteladapters.OTelSpanContext).Span()
	otelSpan.SetAttributes(attribute.Int("direct", 1))
	collector.FinishSpan(span, "success", nil)
	require.Len(t, exporter.GetSpans(), 1)
}
