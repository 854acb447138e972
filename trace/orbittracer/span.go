package orbittracer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

// Span is one in-flight unit of work. Tag/log/baggage writes on unsampled
// spans are discarded up front; everything else is buffered until Finish
// turns the span into an immutable record for the reporter.
type Span struct {
	tracer *Tracer

	lock sync.Mutex

	context       trace_models.SpanContext
	operationName string
	startTime     time.Time

	tags       []trace_models.Tag
	logs       []trace_models.LogRecord
	references []trace_models.Reference

	finished int64
}

func (s *Span) Context() trace_models.SpanContext {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.context
}

func (s *Span) OperationName() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.operationName
}

func (s *Span) SetOperationName(operationName string) *Span {
	s.lock.Lock()
	s.operationName = operationName
	s.lock.Unlock()
	return s
}

func (s *Span) SetTag(key string, value interface{}) *Span {
	s.lock.Lock()
	if s.context.IsSampled() {
		s.tags = append(s.tags, trace_models.Tag{Key: key, Value: value})
	}
	s.lock.Unlock()
	return s
}

// LogKV records one timestamped event from alternating key/value pairs.
func (s *Span) LogKV(alternatingKeyValues ...interface{}) {
	fields := make([]trace_models.Tag, 0, len(alternatingKeyValues)/2)
	for i := 0; i+1 < len(alternatingKeyValues); i += 2 {
		key, ok := alternatingKeyValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, trace_models.Tag{Key: key, Value: alternatingKeyValues[i+1]})
	}
	s.lock.Lock()
	if s.context.IsSampled() {
		s.logs = append(s.logs, trace_models.LogRecord{Timestamp: time.Now(), Fields: fields})
	}
	s.lock.Unlock()
}

// SetBaggageItem derives a new context for this span; the parent context's
// baggage is never touched.
func (s *Span) SetBaggageItem(key, value string) *Span {
	s.lock.Lock()
	s.context = s.context.WithBaggageItem(key, value)
	s.lock.Unlock()
	return s
}

func (s *Span) BaggageItem(key string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.context.BaggageItem(key)
}

func (s *Span) Finish() {
	s.FinishWithOptions(FinishOptions{})
}

type FinishOptions struct {
	FinishTime time.Time
}

func (s *Span) FinishWithOptions(opts FinishOptions) {
	if !atomic.CompareAndSwapInt64(&s.finished, 0, 1) {
		return
	}
	finishTime := opts.FinishTime
	if finishTime.IsZero() {
		finishTime = time.Now()
	}
	s.tracer.metrics.SpansFinished.Inc(1)
	s.lock.Lock()
	if !s.context.IsSampled() {
		s.lock.Unlock()
		return
	}
	record := &trace_models.Record{
		Context:       s.context,
		OperationName: s.operationName,
		StartTime:     s.startTime,
		Duration:      finishTime.Sub(s.startTime),
		Tags:          s.tags,
		Logs:          s.logs,
		References:    s.references,
	}
	s.lock.Unlock()
	s.tracer.reporter.Report(record)
}
