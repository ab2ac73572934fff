package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// SpyMetricRecord represents one recorded metric call. Kind is "duration", "counter" or "value".
type SpyMetricRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
	Context  context.Context
}

// MetricsCollectorSpy captures metric calls, both plain and contextual.
type MetricsCollectorSpy struct {
	records     []SpyMetricRecord
	mu          sync.Mutex
	recordCalls bool
}

func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

func (s *MetricsCollectorSpy) record(rec SpyMetricRecord) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// copy labels to avoid external modifications
	rec.Labels = maps.Clone(rec.Labels)
	s.records = append(s.records, rec)
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "counter", Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels, Context: ctx})
}

func (s *MetricsCollectorSpy) IncrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "counter", Metric: metric, Labels: labels, Context: ctx})
}

func (s *MetricsCollectorSpy) RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels, Context: ctx})
}

// Records returns a copy of the records for metric, or all records when metric is empty.
func (s *MetricsCollectorSpy) Records(metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SpyMetricRecord
	for _, rec := range s.records {
		if metric == "" || rec.Metric == metric {
			out = append(out, rec)
		}
	}

	return out
}

// Count returns how often metric was recorded.
func (s *MetricsCollectorSpy) Count(metric string) int {
	return len(s.Records(metric))
}

// HasRecordWithLabel reports whether metric was recorded with label key=value.
func (s *MetricsCollectorSpy) HasRecordWithLabel(metric, key, value string) bool {
	for _, rec := range s.Records(metric) {
		if rec.Labels[key] == value {
			return true
		}
	}

	return false
}

// Reset clears all recorded metric calls.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

var _ dynproxy.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)
