package trace_sampler

import (
	"fmt"
	"math"

	"github.com/orbit-telemetry/orbit-client-go/trace/internal/rate_limiter"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

// Tags attached to the root span describing which sampler admitted it.
const (
	SamplerTypeTagKey  = "sampler.type"
	SamplerParamTagKey = "sampler.param"

	SamplerTypeConst         = "const"
	SamplerTypeProbabilistic = "probabilistic"
	SamplerTypeRateLimiting  = "ratelimiting"
	SamplerTypeLowerBound    = "lowerbound"
)

// Sampler decides whether a new trace is recorded. Implementations must not
// block: decisions are taken synchronously on application call sites.
type Sampler interface {
	IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag)

	// Equal reports whether the other sampler would take identical
	// decisions. Used by the remote refresh loop to skip no-op swaps.
	Equal(other Sampler) bool

	Close()
}

type ConstSampler struct {
	decision bool
	tags     []trace_models.Tag
}

func NewConstSampler(decision bool) *ConstSampler {
	return &ConstSampler{
		decision: decision,
		tags: []trace_models.Tag{
			{Key: SamplerTypeTagKey, Value: SamplerTypeConst},
			{Key: SamplerParamTagKey, Value: decision},
		},
	}
}

func (s *ConstSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	return s.decision, s.tags
}

func (s *ConstSampler) Equal(other Sampler) bool {
	o, ok := other.(*ConstSampler)
	return ok && o.decision == s.decision
}

func (s *ConstSampler) Close() {}

// ProbabilisticSampler admits the configured fraction of traces. The
// decision is derived from the low 63 bits of the trace id, so re-evaluating
// the same trace always yields the same answer.
type ProbabilisticSampler struct {
	samplingRate     float64
	samplingBoundary uint64
	tags             []trace_models.Tag
}

const maxRandomNumber = ^(uint64(1) << 63)

func NewProbabilisticSampler(samplingRate float64) (*ProbabilisticSampler, error) {
	if samplingRate < 0.0 || samplingRate > 1.0 {
		return nil, fmt.Errorf("sampling rate must be between 0.0 and 1.0, got %f", samplingRate)
	}
	return &ProbabilisticSampler{
		samplingRate:     samplingRate,
		samplingBoundary: uint64(float64(maxRandomNumber) * samplingRate),
		tags: []trace_models.Tag{
			{Key: SamplerTypeTagKey, Value: SamplerTypeProbabilistic},
			{Key: SamplerParamTagKey, Value: samplingRate},
		},
	}, nil
}

func (s *ProbabilisticSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	return s.samplingBoundary >= id.Low&maxRandomNumber, s.tags
}

func (s *ProbabilisticSampler) SamplingRate() float64 {
	return s.samplingRate
}

func (s *ProbabilisticSampler) Equal(other Sampler) bool {
	o, ok := other.(*ProbabilisticSampler)
	return ok && o.samplingBoundary == s.samplingBoundary
}

func (s *ProbabilisticSampler) Close() {}

// RateLimitingSampler admits at most maxTracesPerSecond new traces, with
// bursts up to the same amount after idle periods.
type RateLimitingSampler struct {
	maxTracesPerSecond float64
	limiter            *rate_limiter.RateLimiter
	tags               []trace_models.Tag
}

func NewRateLimitingSampler(maxTracesPerSecond float64) *RateLimitingSampler {
	s := &RateLimitingSampler{}
	s.init(maxTracesPerSecond)
	return s
}

func (s *RateLimitingSampler) init(maxTracesPerSecond float64) {
	if s.limiter == nil {
		s.limiter = rate_limiter.New(maxTracesPerSecond, math.Max(maxTracesPerSecond, 1.0))
	} else {
		s.limiter.Update(maxTracesPerSecond, math.Max(maxTracesPerSecond, 1.0))
	}
	s.maxTracesPerSecond = maxTracesPerSecond
	s.tags = []trace_models.Tag{
		{Key: SamplerTypeTagKey, Value: SamplerTypeRateLimiting},
		{Key: SamplerParamTagKey, Value: maxTracesPerSecond},
	}
}

func (s *RateLimitingSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	return s.limiter.CheckCredit(1.0), s.tags
}

func (s *RateLimitingSampler) Update(maxTracesPerSecond float64) {
	if s.maxTracesPerSecond != maxTracesPerSecond {
		s.init(maxTracesPerSecond)
	}
}

func (s *RateLimitingSampler) Equal(other Sampler) bool {
	o, ok := other.(*RateLimitingSampler)
	return ok && o.maxTracesPerSecond == s.maxTracesPerSecond
}

func (s *RateLimitingSampler) Close() {}
