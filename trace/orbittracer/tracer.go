package orbittracer

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/id_generator"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_reporter"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sampler"
)

// ProcessSetter is implemented by reporters that want the tracer's process
// info pushed into them at construction.
type ProcessSetter interface {
	SetProcess(process *trace_models.Process)
}

// Tracer creates spans, consults the sampler for new traces and hands
// finished records to the reporter. All methods are safe for concurrent use.
type Tracer struct {
	service string
	process *trace_models.Process

	sampler  trace_sampler.Sampler
	reporter trace_reporter.Reporter

	logger  logger.Logger
	metrics *metrics.Metrics

	idGenerator *id_generator.IdGenerator

	injectors  map[interface{}]Injector
	extractors map[interface{}]Extractor

	closeOnce sync.Once
	drained   bool
}

func NewTracer(service string, sampler trace_sampler.Sampler, reporter trace_reporter.Reporter, opts ...TracerOption) *Tracer {
	config := newDefaultTracerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NullMetrics()
	}
	t := &Tracer{
		service:     service,
		sampler:     sampler,
		reporter:    reporter,
		logger:      config.Logger,
		metrics:     config.Metrics,
		idGenerator: id_generator.New(),
	}
	t.process = buildProcess(service, config.Tags)
	if setter, ok := reporter.(ProcessSetter); ok {
		setter.SetProcess(t.process)
	}

	textPropagator := NewTextMapPropagator(t.idGenerator, t.metrics)
	headersPropagator := NewHTTPHeadersPropagator(t.idGenerator, t.metrics)
	binaryPropagator := NewBinaryPropagator(t.metrics)
	t.injectors = map[interface{}]Injector{
		TextMap:     textPropagator,
		HTTPHeaders: headersPropagator,
		Binary:      binaryPropagator,
	}
	t.extractors = map[interface{}]Extractor{
		TextMap:     textPropagator,
		HTTPHeaders: headersPropagator,
		Binary:      binaryPropagator,
	}
	for _, p := range config.Propagators {
		if p.Injector != nil {
			t.injectors[p.Format] = p.Injector
		}
		if p.Extractor != nil {
			t.extractors[p.Format] = p.Extractor
		}
	}
	return t
}

func (t *Tracer) Service() string {
	return t.service
}

func (t *Tracer) Process() *trace_models.Process {
	return t.process
}

type StartSpanOptions struct {
	References []trace_models.Reference
	StartTime  time.Time
	Tags       []trace_models.Tag
}

type StartSpanOption func(*StartSpanOptions)

// ChildOf makes the new span a child of the given context.
func ChildOf(sc trace_models.SpanContext) StartSpanOption {
	return func(options *StartSpanOptions) {
		options.References = append(options.References, trace_models.Reference{
			Type:    trace_models.ChildOfRef,
			Context: sc,
		})
	}
}

// FollowsFrom links the new span to work it was caused by but does not wait
// on.
func FollowsFrom(sc trace_models.SpanContext) StartSpanOption {
	return func(options *StartSpanOptions) {
		options.References = append(options.References, trace_models.Reference{
			Type:    trace_models.FollowsFromRef,
			Context: sc,
		})
	}
}

func WithStartTime(startTime time.Time) StartSpanOption {
	return func(options *StartSpanOptions) {
		options.StartTime = startTime
	}
}

func WithTag(key string, value interface{}) StartSpanOption {
	return func(options *StartSpanOptions) {
		options.Tags = append(options.Tags, trace_models.Tag{Key: key, Value: value})
	}
}

// StartSpan creates a span. Without a parent reference the sampler decides
// whether the new trace is recorded; with one the parent's sampling flags and
// baggage are inherited unchanged.
func (t *Tracer) StartSpan(operationName string, opts ...StartSpanOption) *Span {
	options := StartSpanOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.StartTime.IsZero() {
		options.StartTime = time.Now()
	}

	var (
		parent    trace_models.SpanContext
		hasParent bool
	)
	for _, ref := range options.References {
		if ref.Context.IsValid() || ref.Context.DebugID() != "" {
			parent = ref.Context
			hasParent = true
			break
		}
	}

	var (
		ctx         trace_models.SpanContext
		samplerTags []trace_models.Tag
	)
	switch {
	case !hasParent:
		traceID := t.idGenerator.NewTraceID()
		flags := byte(0)
		if sampled, tags := t.sampler.IsSampled(traceID, operationName); sampled {
			flags = trace_models.FlagSampled
			samplerTags = tags
			t.metrics.TracesStartedSampled.Inc(1)
		} else {
			t.metrics.TracesStartedNotSampled.Inc(1)
		}
		ctx = trace_models.NewSpanContext(traceID, t.idGenerator.NewSpanID(), 0, flags, nil)
	case !parent.IsValid():
		// synthesized from a debug header: root of a forcibly sampled trace
		ctx = trace_models.NewSpanContext(parent.TraceID(), t.idGenerator.NewSpanID(), 0, parent.Flags(), baggageOf(parent))
		samplerTags = []trace_models.Tag{{Key: JaegerDebugHeader, Value: parent.DebugID()}}
		t.metrics.TracesStartedSampled.Inc(1)
	default:
		ctx = trace_models.NewSpanContext(parent.TraceID(), t.idGenerator.NewSpanID(), parent.SpanID(), parent.Flags(), baggageOf(parent))
		t.metrics.TracesJoined.Inc(1)
	}

	span := &Span{
		tracer:        t,
		context:       ctx,
		operationName: operationName,
		startTime:     options.StartTime,
	}
	if ctx.IsSampled() {
		span.tags = append(span.tags, samplerTags...)
		span.tags = append(span.tags, options.Tags...)
		for _, ref := range options.References {
			if ref.Context.IsValid() {
				span.references = append(span.references, ref)
			}
		}
	}
	return span
}

func (t *Tracer) Inject(sc trace_models.SpanContext, format interface{}, carrier interface{}) error {
	if injector, ok := t.injectors[format]; ok {
		return injector.Inject(sc, carrier)
	}
	return ErrUnsupportedFormat
}

func (t *Tracer) Extract(format interface{}, carrier interface{}) (trace_models.SpanContext, error) {
	if extractor, ok := t.extractors[format]; ok {
		return extractor.Extract(carrier)
	}
	return trace_models.SpanContext{}, ErrUnsupportedFormat
}

// Close stops the sampler's refresh loop and drains the reporter within the
// context deadline. Idempotent; later calls return the first call's result.
func (t *Tracer) Close(ctx context.Context) bool {
	t.closeOnce.Do(func() {
		t.sampler.Close()
		t.drained = t.reporter.Close(ctx)
	})
	return t.drained
}

func baggageOf(sc trace_models.SpanContext) map[string]string {
	var baggage map[string]string
	sc.ForeachBaggageItem(func(k, v string) bool {
		if baggage == nil {
			baggage = make(map[string]string)
		}
		baggage[k] = v
		return true
	})
	return baggage
}

func buildProcess(service string, extraTags []trace_models.Tag) *trace_models.Process {
	tags := make([]trace_models.Tag, 0, len(extraTags)+4)
	tags = append(tags, trace_models.Tag{Key: TracerVersionTagKey, Value: clientVersion})
	if hostname, err := os.Hostname(); err == nil {
		tags = append(tags, trace_models.Tag{Key: TracerHostnameTagKey, Value: hostname})
	}
	if ip := localIPv4(); ip != "" {
		tags = append(tags, trace_models.Tag{Key: TracerIPTagKey, Value: ip})
	}
	tags = append(tags, trace_models.Tag{Key: TracerUUIDTagKey, Value: uuid.NewString()})
	tags = append(tags, extraTags...)
	return &trace_models.Process{Service: service, Tags: tags}
}

func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return ""
}
