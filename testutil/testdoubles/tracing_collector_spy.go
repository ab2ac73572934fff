package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// SpySpanContext implements dynproxy.SpanContext for tests.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}
	c.attributes[key] = value
}

func (c *SpySpanContext) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *SpySpanContext) Attributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.attributes)
}

// SpySpanRecord represents a recorded span.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	SpanContext     *SpySpanContext
}

// TracingCollectorSpy captures spans started and finished through the TracingCollector interface.
type TracingCollectorSpy struct {
	spans       []*SpySpanRecord
	mu          sync.Mutex
	recordCalls bool
}

func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, dynproxy.SpanContext) {
	spanCtx := &SpySpanContext{}
	if !s.recordCalls {
		return ctx, spanCtx
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, &SpySpanRecord{Name: name, StartAttributes: maps.Clone(attrs), SpanContext: spanCtx})

	return ctx, spanCtx
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx dynproxy.SpanContext, status string, attrs map[string]string) {
	if !s.recordCalls || spanCtx == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.spans {
		if rec.SpanContext == spanCtx {
			rec.Status = status
			rec.EndAttributes = maps.Clone(attrs)
			rec.Finished = true

			return
		}
	}
}

// Spans returns copies of the recorded spans named name, or all spans when name is empty.
func (s *TracingCollectorSpy) Spans(name string) []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SpySpanRecord
	for _, rec := range s.spans {
		if name == "" || rec.Name == name {
			out = append(out, *rec)
		}
	}

	return out
}

// Reset clears all recorded spans.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = s.spans[:0]
}

var _ dynproxy.TracingCollector = (*TracingCollectorSpy)(nil)
