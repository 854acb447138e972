// Package metrics holds the internal counters through which the tracing
// pipeline surfaces its failures. Nothing in the pipeline raises an error to
// application code; lost observations show up here and nowhere else.
package metrics

type Counter interface {
	Inc(delta int64)
}

type Gauge interface {
	Update(value int64)
}

// Factory creates counters and gauges by name. Implementations decide where
// the values end up (nowhere, in memory, a prometheus registry).
type Factory interface {
	Counter(name string) Counter
	Gauge(name string) Gauge
}

type Metrics struct {
	// decisions
	TracesStartedSampled    Counter
	TracesStartedNotSampled Counter
	TracesJoined            Counter
	SpansFinished           Counter

	// reporting pipeline
	ReporterSuccess     Counter // spans handed to the backend successfully
	ReporterFailure     Counter // spans in batches the sender could not deliver
	ReporterDropped     Counter // spans dropped on a full or closed queue
	ReporterQueueLength Gauge
	BatchesSent         Counter

	// encoding
	EncodingFailures Counter // records too large to fit a single datagram

	// remote sampling
	SamplerRetrieved     Counter
	SamplerUpdated       Counter
	SamplerQueryFailure  Counter // strategy endpoint unreachable or malformed
	SamplerUpdateFailure Counter // strategy fetched but not usable

	// propagation
	DecodingErrors Counter // malformed incoming carriers
}

func NewMetrics(factory Factory) *Metrics {
	return &Metrics{
		TracesStartedSampled:    factory.Counter("traces_started_sampled"),
		TracesStartedNotSampled: factory.Counter("traces_started_not_sampled"),
		TracesJoined:            factory.Counter("traces_joined"),
		SpansFinished:           factory.Counter("spans_finished"),

		ReporterSuccess:     factory.Counter("reporter_spans_ok"),
		ReporterFailure:     factory.Counter("reporter_spans_err"),
		ReporterDropped:     factory.Counter("reporter_spans_dropped"),
		ReporterQueueLength: factory.Gauge("reporter_queue_length"),
		BatchesSent:         factory.Counter("reporter_batches_sent"),

		EncodingFailures: factory.Counter("encoding_failures"),

		SamplerRetrieved:     factory.Counter("sampler_retrieved"),
		SamplerUpdated:       factory.Counter("sampler_updated"),
		SamplerQueryFailure:  factory.Counter("sampler_query_failure"),
		SamplerUpdateFailure: factory.Counter("sampler_update_failure"),

		DecodingErrors: factory.Counter("decoding_errors"),
	}
}

func NullMetrics() *Metrics {
	return NewMetrics(NullFactory{})
}

type NullFactory struct{}

func (NullFactory) Counter(name string) Counter { return nullCounter{} }
func (NullFactory) Gauge(name string) Gauge     { return nullGauge{} }

type nullCounter struct{}

func (nullCounter) Inc(delta int64) {}

type nullGauge struct{}

func (nullGauge) Update(value int64) {}
