package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// SpyLogRecord represents a recorded log call. Context is nil for plain Logger calls.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// HasArg reports whether key appears as an attribute name in the record.
func (r SpyLogRecord) HasArg(key string) bool {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if r.Args[i] == key {
			return true
		}
	}

	return false
}

// Arg returns the value of attribute key.
func (r SpyLogRecord) Arg(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if r.Args[i] == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

type logRecorder struct {
	records     []SpyLogRecord
	mu          sync.Mutex
	recordCalls bool
}

func (r *logRecorder) record(ctx context.Context, level, msg string, args []any) {
	if !r.recordCalls {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Records returns a copy of all records, optionally filtered by level.
func (r *logRecorder) Records(levels ...string) []SpyLogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []SpyLogRecord
	for _, rec := range r.records {
		if len(levels) == 0 || contains(levels, rec.Level) {
			out = append(out, rec)
		}
	}

	return out
}

// HasMessage reports whether a record with msg was captured at level.
func (r *logRecorder) HasMessage(level, msg string) bool {
	for _, rec := range r.Records(level) {
		if rec.Message == msg {
			return true
		}
	}

	return false
}

// Reset clears all recorded log calls.
func (r *logRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = r.records[:0]
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}

// LoggerSpy captures calls to the plain Logger interface.
type LoggerSpy struct {
	logRecorder
}

func NewLoggerSpy(recordCalls bool) *LoggerSpy {
	return &LoggerSpy{logRecorder{recordCalls: recordCalls}}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record(nil, "debug", msg, args) }

func (s *LoggerSpy) Info(msg string, args ...any) { s.record(nil, "info", msg, args) }

func (s *LoggerSpy) Warn(msg string, args ...any) { s.record(nil, "warn", msg, args) }

func (s *LoggerSpy) Error(msg string, args ...any) { s.record(nil, "error", msg, args) }

// ContextualLoggerSpy captures calls to the ContextualLogger interface.
type ContextualLoggerSpy struct {
	logRecorder
}

func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{logRecorder{recordCalls: recordCalls}}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

var (
	_ dynproxy.Logger           = (*LoggerSpy)(nil)
	_ dynproxy.ContextualLogger = (*ContextualLoggerSpy)(nil)
)
