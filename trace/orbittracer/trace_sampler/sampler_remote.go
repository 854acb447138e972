package trace_sampler

import (
	"fmt"
	"sync"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/strategy_fetcher"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

const (
	defaultPollInterval        = 60 * time.Second
	defaultInitialSamplingRate = 0.001
)

type RemoteSamplerConfig struct {
	ServerURL     string
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	MaxOperations int
	Initial       Sampler
	Logger        logger.Logger
	Metrics       *metrics.Metrics
}

type RemoteSamplerOption func(*RemoteSamplerConfig)

func WithServerURL(serverURL string) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.ServerURL = serverURL
	}
}

func WithPollInterval(interval time.Duration) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.PollInterval = interval
	}
}

func WithFetchTimeout(timeout time.Duration) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.FetchTimeout = timeout
	}
}

func WithMaxOperations(maxOperations int) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.MaxOperations = maxOperations
	}
}

func WithInitialSampler(sampler Sampler) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.Initial = sampler
	}
}

func WithSamplerLogger(l logger.Logger) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.Logger = l
	}
}

func WithSamplerMetrics(m *metrics.Metrics) RemoteSamplerOption {
	return func(config *RemoteSamplerConfig) {
		config.Metrics = m
	}
}

// RemotelyControlledSampler delegates to a current sampler that a background
// goroutine refreshes from the sampling server. Decisions only take the read
// lock and never wait on network I/O; the poll loop retains the last known
// good sampler across fetch failures.
type RemotelyControlledSampler struct {
	service string
	fetcher *strategy_fetcher.Fetcher
	logger  logger.Logger
	metrics *metrics.Metrics

	pollInterval  time.Duration
	maxOperations int

	rwlock  sync.RWMutex
	sampler Sampler

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewRemotelyControlledSampler(service string, opts ...RemoteSamplerOption) *RemotelyControlledSampler {
	config := RemoteSamplerConfig{
		PollInterval:  defaultPollInterval,
		MaxOperations: defaultMaxOperations,
		Logger:        &logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Initial == nil {
		config.Initial, _ = NewProbabilisticSampler(defaultInitialSamplingRate)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NullMetrics()
	}
	return &RemotelyControlledSampler{
		service: service,
		fetcher: strategy_fetcher.New(strategy_fetcher.FetcherConfig{
			Service:   service,
			ServerURL: config.ServerURL,
			Timeout:   config.FetchTimeout,
			Logger:    config.Logger,
		}),
		logger:        config.Logger,
		metrics:       config.Metrics,
		pollInterval:  config.PollInterval,
		maxOperations: config.MaxOperations,
		sampler:       config.Initial,
		closeChan:     make(chan struct{}),
	}
}

var _ Sampler = &RemotelyControlledSampler{}

func (s *RemotelyControlledSampler) IsSampled(id trace_models.TraceID, operation string) (bool, []trace_models.Tag) {
	s.rwlock.RLock()
	defer func() {
		s.rwlock.RUnlock()
	}()
	return s.sampler.IsSampled(id, operation)
}

// Start launches the poll loop. The first refresh happens immediately so a
// reachable server takes effect without waiting a full interval.
func (s *RemotelyControlledSampler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.UpdateSampler()
		t := time.NewTicker(s.pollInterval)
		defer func() {
			t.Stop()
		}()
		for {
			select {
			case <-t.C:
				s.UpdateSampler()
			case <-s.closeChan:
				return
			}
		}
	}()
}

func (s *RemotelyControlledSampler) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
	})
	s.wg.Wait()
}

func (s *RemotelyControlledSampler) Equal(other Sampler) bool {
	return false
}

// Sampler returns the current delegate, for inspection.
func (s *RemotelyControlledSampler) Sampler() Sampler {
	s.rwlock.RLock()
	defer func() {
		s.rwlock.RUnlock()
	}()
	return s.sampler
}

// UpdateSampler performs one fetch-and-swap cycle. Exported so tests and
// callers with their own scheduling can force a refresh.
func (s *RemotelyControlledSampler) UpdateSampler() {
	strategy, err := s.fetcher.Fetch()
	if err != nil {
		s.metrics.SamplerQueryFailure.Inc(1)
		s.logger.Error("[UpdateSampler] strategy fetch failed, keeping current sampler: %v", err)
		return
	}
	s.metrics.SamplerRetrieved.Inc(1)

	s.rwlock.Lock()
	defer func() {
		s.rwlock.Unlock()
	}()
	if err := s.applyStrategy(strategy); err != nil {
		s.metrics.SamplerUpdateFailure.Inc(1)
		s.logger.Error("[UpdateSampler] strategy not usable, keeping current sampler: %v", err)
		return
	}
	s.metrics.SamplerUpdated.Inc(1)
}

func (s *RemotelyControlledSampler) applyStrategy(strategy *strategy_fetcher.StrategyResponse) error {
	if strategy.OperationSampling != nil {
		if adaptive, ok := s.sampler.(*PerOperationSampler); ok {
			return adaptive.update(strategy.OperationSampling)
		}
		adaptive, err := NewPerOperationSampler(s.maxOperations, strategy.OperationSampling)
		if err != nil {
			return err
		}
		s.sampler = adaptive
		return nil
	}
	next, err := samplerFromStrategy(strategy)
	if err != nil {
		return err
	}
	if !s.sampler.Equal(next) {
		s.sampler = next
	}
	return nil
}

func samplerFromStrategy(strategy *strategy_fetcher.StrategyResponse) (Sampler, error) {
	switch strategy.StrategyType {
	case strategy_fetcher.StrategyTypeConst:
		if strategy.ConstSampling == nil {
			return nil, fmt.Errorf("const strategy missing constSampling")
		}
		return NewConstSampler(strategy.ConstSampling.Decision), nil
	case strategy_fetcher.StrategyTypeProbabilistic:
		if strategy.ProbabilisticSampling == nil {
			return nil, fmt.Errorf("probabilistic strategy missing probabilisticSampling")
		}
		return NewProbabilisticSampler(strategy.ProbabilisticSampling.SamplingRate)
	case strategy_fetcher.StrategyTypeRateLimiting:
		if strategy.RateLimitingSampling == nil {
			return nil, fmt.Errorf("rate limiting strategy missing rateLimitingSampling")
		}
		return NewRateLimitingSampler(strategy.RateLimitingSampling.MaxTracesPerSecond), nil
	}
	return nil, fmt.Errorf("unknown strategy type %q", strategy.StrategyType)
}
