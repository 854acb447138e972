package orbittracer

import (
	"sync"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_reporter"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sampler"
)

var (
	globalMu     sync.RWMutex
	globalTracer *Tracer
)

// SetGlobalTracer installs the process-wide tracer used by the package-level
// helpers and the contrib integrations.
func SetGlobalTracer(tracer *Tracer) {
	globalMu.Lock()
	globalTracer = tracer
	globalMu.Unlock()
}

// GlobalTracer returns the installed tracer. Before SetGlobalTracer it
// returns a disabled tracer that samples nothing, so call sites never need a
// nil check.
func GlobalTracer() *Tracer {
	globalMu.RLock()
	tracer := globalTracer
	globalMu.RUnlock()
	if tracer != nil {
		return tracer
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalTracer == nil {
		globalTracer = NewTracer("unknown_service", trace_sampler.NewConstSampler(false), trace_reporter.NewNullReporter())
	}
	return globalTracer
}

func StartSpan(operationName string, opts ...StartSpanOption) *Span {
	return GlobalTracer().StartSpan(operationName, opts...)
}
