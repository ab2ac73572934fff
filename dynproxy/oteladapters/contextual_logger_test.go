package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/oteladapters"
)

// recordingLogger is a minimal log.Logger keeping every emitted record.
type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record.Clone())
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool { return true }

func attributesOf(record log.Record) map[string]log.Value {
	attrs := map[string]log.Value{}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func Test_SlogBridgeLogger_WritesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logger.DebugContext(ctx, "proxy type built", "proxy_type", "CompositionDynamicProxy_1")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "proxy creation failed", "error", "sealed")

	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"proxy_type":"CompositionDynamicProxy_1"`)
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"msg":"proxy creation failed"`)
}

func Test_NewSlogBridgeLogger_UsesGlobalProvider(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("dynproxy")

	assert.NotPanics(t, func() { logger.InfoContext(context.Background(), "no provider configured") })
}

func Test_OTelLogger_EmitsTypedAttributes(t *testing.T) {
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	logger.ErrorContext(context.Background(), "call failed",
		"method", "Greet",
		"attempt", 2,
		"retried", true,
		"duration_ms", 1.5,
		"elapsed", 3*time.Second,
		"error", errors.New("boom"),
		42, "dropped",
	)
	logger.DebugContext(context.Background(), "debug")

	require.Len(t, recorder.records, 2)

	record := recorder.records[0]
	assert.Equal(t, log.SeverityError, record.Severity())
	assert.Equal(t, "call failed", record.Body().AsString())

	attrs := attributesOf(record)
	assert.Len(t, attrs, 6)
	assert.Equal(t, "Greet", attrs["method"].AsString())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.True(t, attrs["retried"].AsBool())
	assert.InDelta(t, 1.5, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.Equal(t, int64(3000), attrs["elapsed"].AsInt64())
	assert.Equal(t, "boom", attrs["error"].AsString())

	assert.Equal(t, log.SeverityDebug, recorder.records[1].Severity())
}
