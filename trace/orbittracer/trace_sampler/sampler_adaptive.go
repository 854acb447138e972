package trace_sampler

import (
	"sync"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/strategy_fetcher"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

// GuaranteedThroughputProbabilisticSampler samples probabilistically but
// guarantees a lower bound of traces per second for the operation: when the
// probabilistic decision is negative the lower-bound limiter may still admit
// the trace.
type GuaranteedThroughputProbabilisticSampler struct {
	probabilistic *ProbabilisticSampler
	lowerBound    *RateLimitingSampler

	lowerBoundValue float64
	lowerBoundTags  []trace_models.Tag
}

func NewGuaranteedThroughputProbabilisticSampler(lowerBound, samplingRate float64) (*GuaranteedThroughputProbabilisticSampler, error) {
	probabilistic, err := NewProbabilisticSampler(samplingRate)
	if err != nil {
		return nil, err
	}
	return &GuaranteedThroughputProbabilisticSampler{
		probabilistic:   probabilistic,
		lowerBound:      NewRateLimitingSampler(lowerBound),
		lowerBoundValue: lowerBound,
		lowerBoundTags: []trace_models.Tag{
			{Key: SamplerTypeTagKey, Value: SamplerTypeLowerBound},
			{Key: SamplerParamTagKey, Value: samplingRate},
		},
	}, nil
}

func (s *GuaranteedThroughputProbabilisticSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	if sampled, tags := s.probabilistic.IsSampled(id, operation); sampled {
		// keep draining the lower-bound bucket so it only covers the
		// shortfall left by the probabilistic sampler
		s.lowerBound.IsSampled(id, operation)
		return true, tags
	}
	sampled, _ := s.lowerBound.IsSampled(id, operation)
	return sampled, s.lowerBoundTags
}

func (s *GuaranteedThroughputProbabilisticSampler) update(lowerBound, samplingRate float64) error {
	if samplingRate != s.probabilistic.SamplingRate() {
		probabilistic, err := NewProbabilisticSampler(samplingRate)
		if err != nil {
			return err
		}
		s.probabilistic = probabilistic
		s.lowerBoundTags = []trace_models.Tag{
			{Key: SamplerTypeTagKey, Value: SamplerTypeLowerBound},
			{Key: SamplerParamTagKey, Value: samplingRate},
		}
	}
	if lowerBound != s.lowerBoundValue {
		s.lowerBound.Update(lowerBound)
		s.lowerBoundValue = lowerBound
	}
	return nil
}

func (s *GuaranteedThroughputProbabilisticSampler) Equal(other Sampler) bool {
	o, ok := other.(*GuaranteedThroughputProbabilisticSampler)
	return ok && o.lowerBoundValue == s.lowerBoundValue && o.probabilistic.Equal(s.probabilistic)
}

func (s *GuaranteedThroughputProbabilisticSampler) Close() {}

const defaultMaxOperations = 2000

// PerOperationSampler keeps one guaranteed-throughput sampler per operation
// name, falling back to a default probabilistic sampler once the operation
// map reaches maxOperations.
type PerOperationSampler struct {
	lock sync.RWMutex

	defaultSampler *ProbabilisticSampler
	samplers       map[string]*GuaranteedThroughputProbabilisticSampler

	lowerBound    float64
	maxOperations int
}

func NewPerOperationSampler(maxOperations int, strategies *strategy_fetcher.PerOperationStrategies) (*PerOperationSampler, error) {
	if maxOperations <= 0 {
		maxOperations = defaultMaxOperations
	}
	defaultSampler, err := NewProbabilisticSampler(strategies.DefaultSamplingProbability)
	if err != nil {
		return nil, err
	}
	s := &PerOperationSampler{
		defaultSampler: defaultSampler,
		samplers:       make(map[string]*GuaranteedThroughputProbabilisticSampler),
		lowerBound:     strategies.DefaultLowerBoundTracesPerSecond,
		maxOperations:  maxOperations,
	}
	for _, strategy := range strategies.PerOperationStrategies {
		if strategy == nil || strategy.ProbabilisticSampling == nil {
			continue
		}
		opSampler, err := NewGuaranteedThroughputProbabilisticSampler(s.lowerBound, strategy.ProbabilisticSampling.SamplingRate)
		if err != nil {
			return nil, err
		}
		s.samplers[strategy.Operation] = opSampler
	}
	return s, nil
}

func (s *PerOperationSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	s.lock.RLock()
	opSampler, ok := s.samplers[operation]
	s.lock.RUnlock()
	if ok {
		return opSampler.IsSampled(id, operation)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if opSampler, ok = s.samplers[operation]; ok {
		return opSampler.IsSampled(id, operation)
	}
	if len(s.samplers) >= s.maxOperations {
		return s.defaultSampler.IsSampled(id, operation)
	}
	opSampler, err := NewGuaranteedThroughputProbabilisticSampler(s.lowerBound, s.defaultSampler.SamplingRate())
	if err != nil {
		return s.defaultSampler.IsSampled(id, operation)
	}
	s.samplers[operation] = opSampler
	return opSampler.IsSampled(id, operation)
}

// update merges a fresh strategy set into the existing per-operation
// samplers, keeping their rate-limiter balances intact.
func (s *PerOperationSampler) update(strategies *strategy_fetcher.PerOperationStrategies) error {
	defaultSampler, err := NewProbabilisticSampler(strategies.DefaultSamplingProbability)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.defaultSampler = defaultSampler
	s.lowerBound = strategies.DefaultLowerBoundTracesPerSecond
	for _, strategy := range strategies.PerOperationStrategies {
		if strategy == nil || strategy.ProbabilisticSampling == nil {
			continue
		}
		if opSampler, ok := s.samplers[strategy.Operation]; ok {
			if err := opSampler.update(s.lowerBound, strategy.ProbabilisticSampling.SamplingRate); err != nil {
				return err
			}
			continue
		}
		if len(s.samplers) >= s.maxOperations {
			continue
		}
		opSampler, err := NewGuaranteedThroughputProbabilisticSampler(s.lowerBound, strategy.ProbabilisticSampling.SamplingRate)
		if err != nil {
			return err
		}
		s.samplers[strategy.Operation] = opSampler
	}
	return nil
}

func (s *PerOperationSampler) Equal(other Sampler) bool {
	// adaptive samplers are refreshed in place rather than swapped
	return false
}

func (s *PerOperationSampler) Close() {}
