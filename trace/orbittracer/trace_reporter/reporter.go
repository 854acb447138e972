package trace_reporter

import (
	"context"
	"sync"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

// Reporter receives finished records. Report must never block the caller;
// Close drains best-effort within the context deadline and reports whether
// everything was flushed.
type Reporter interface {
	Report(record *trace_models.Record)
	Close(ctx context.Context) bool
}

// Sender delivers one batch to the backend, bounded by ctx. Implemented by
// the datagram and collector senders in trace_sender.
type Sender interface {
	Send(ctx context.Context, batch *trace_models.Batch) error
	Close() error
}

type NullReporter struct{}

func NewNullReporter() *NullReporter {
	return &NullReporter{}
}

func (r *NullReporter) Report(record *trace_models.Record) {}

func (r *NullReporter) Close(ctx context.Context) bool {
	return true
}

// InMemoryReporter keeps records in memory, for tests.
type InMemoryReporter struct {
	lock    sync.Mutex
	records []*trace_models.Record
}

func NewInMemoryReporter() *InMemoryReporter {
	return &InMemoryReporter{}
}

func (r *InMemoryReporter) Report(record *trace_models.Record) {
	r.lock.Lock()
	r.records = append(r.records, record)
	r.lock.Unlock()
}

func (r *InMemoryReporter) Close(ctx context.Context) bool {
	return true
}

func (r *InMemoryReporter) GetRecords() []*trace_models.Record {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]*trace_models.Record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *InMemoryReporter) Reset() {
	r.lock.Lock()
	r.records = nil
	r.lock.Unlock()
}

type LoggingReporter struct {
	logger logger.Logger
}

func NewLoggingReporter(l logger.Logger) *LoggingReporter {
	if l == nil {
		l = &logger.StdLogger{}
	}
	return &LoggingReporter{logger: l}
}

func (r *LoggingReporter) Report(record *trace_models.Record) {
	r.logger.Info("reporting span %s:%s operation=%s duration=%s",
		record.Context.TraceID(), record.Context.SpanID(), record.OperationName, record.Duration)
}

func (r *LoggingReporter) Close(ctx context.Context) bool {
	return true
}

// CompositeReporter fans records out to several reporters.
type CompositeReporter struct {
	reporters []Reporter
}

func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (r *CompositeReporter) Report(record *trace_models.Record) {
	for _, reporter := range r.reporters {
		reporter.Report(record)
	}
}

func (r *CompositeReporter) Close(ctx context.Context) bool {
	drained := true
	for _, reporter := range r.reporters {
		if !reporter.Close(ctx) {
			drained = false
		}
	}
	return drained
}
