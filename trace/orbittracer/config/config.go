package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_reporter"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sampler"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sender"
)

// Sampler type names accepted in configuration.
const (
	SamplerTypeConst         = "const"
	SamplerTypeProbabilistic = "probabilistic"
	SamplerTypeRateLimiting  = "ratelimiting"
	SamplerTypeRemote        = "remote"
)

const envPrefix = "tracer"

// Duration parses human-readable values like "500ms" or "30s" from both YAML
// and environment variables.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

type SamplerConfig struct {
	// Type selects the sampler: const, probabilistic, ratelimiting or
	// remote. Param is interpreted per type: 0/1 decision, probability,
	// traces per second, or the initial probability before the first
	// successful poll.
	Type  string  `yaml:"type"`
	Param float64 `yaml:"param"`

	SamplingServerURL string   `yaml:"sampling_server_url" split_words:"true"`
	PollInterval      Duration `yaml:"poll_interval" split_words:"true"`
	MaxOperations     int      `yaml:"max_operations" split_words:"true"`
}

type ReporterConfig struct {
	QueueSize     int      `yaml:"queue_size" split_words:"true"`
	BatchSize     int      `yaml:"batch_size" split_words:"true"`
	FlushInterval Duration `yaml:"flush_interval" split_words:"true"`

	// AgentHostPort selects the datagram sender. CollectorEndpoint, when
	// set, wins and selects the HTTP sender instead.
	AgentHostPort     string `yaml:"agent_host_port" split_words:"true"`
	CollectorEndpoint string `yaml:"collector_endpoint" split_words:"true"`
}

type Configuration struct {
	Service  string `yaml:"service" envconfig:"SERVICE_NAME"`
	Disabled bool   `yaml:"disabled"`

	Sampler  SamplerConfig     `yaml:"sampler"`
	Reporter ReporterConfig    `yaml:"reporter"`
	Tags     map[string]string `yaml:"tags"`
}

// Load parses a YAML document into a Configuration.
func Load(data []byte) (*Configuration, error) {
	c := &Configuration{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return c, nil
}

// FromEnv reads configuration from TRACER_* environment variables, e.g.
// TRACER_SERVICE_NAME, TRACER_SAMPLER_TYPE, TRACER_REPORTER_QUEUE_SIZE.
func FromEnv() (*Configuration, error) {
	c := &Configuration{}
	if err := envconfig.Process(envPrefix, c); err != nil {
		return nil, fmt.Errorf("read configuration from environment: %w", err)
	}
	return c, nil
}

type Option func(*options)

type options struct {
	logger         logger.Logger
	metricsFactory metrics.Factory
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetricsFactory(factory metrics.Factory) Option {
	return func(o *options) {
		o.metricsFactory = factory
	}
}

// NewTracer assembles a sampler, sender and reporter per the configuration
// and returns the resulting tracer. Closing the tracer stops everything the
// configuration started.
func (c *Configuration) NewTracer(opts ...Option) (*orbittracer.Tracer, error) {
	o := options{logger: &logger.NoopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if c.Service == "" {
		return nil, fmt.Errorf("no service name in configuration")
	}
	tracerMetrics := metrics.NullMetrics()
	if o.metricsFactory != nil {
		tracerMetrics = metrics.NewMetrics(o.metricsFactory)
	}

	if c.Disabled {
		return orbittracer.NewTracer(
			c.Service,
			trace_sampler.NewConstSampler(false),
			trace_reporter.NewNullReporter(),
			orbittracer.WithLogger(o.logger),
			orbittracer.WithMetrics(tracerMetrics),
		), nil
	}

	sampler, err := c.buildSampler(o.logger, tracerMetrics)
	if err != nil {
		return nil, err
	}
	reporter, err := c.buildReporter(o.logger, tracerMetrics)
	if err != nil {
		sampler.Close()
		return nil, err
	}

	tracerOpts := []orbittracer.TracerOption{
		orbittracer.WithLogger(o.logger),
		orbittracer.WithMetrics(tracerMetrics),
	}
	for k, v := range c.Tags {
		tracerOpts = append(tracerOpts, orbittracer.WithProcessTag(k, v))
	}
	return orbittracer.NewTracer(c.Service, sampler, reporter, tracerOpts...), nil
}

func (c *Configuration) buildSampler(l logger.Logger, m *metrics.Metrics) (trace_sampler.Sampler, error) {
	sc := c.Sampler
	switch strings.ToLower(sc.Type) {
	case SamplerTypeConst, "":
		return trace_sampler.NewConstSampler(sc.Param != 0), nil
	case SamplerTypeProbabilistic:
		return trace_sampler.NewProbabilisticSampler(sc.Param)
	case SamplerTypeRateLimiting:
		return trace_sampler.NewRateLimitingSampler(sc.Param), nil
	case SamplerTypeRemote:
		samplerOpts := []trace_sampler.RemoteSamplerOption{
			trace_sampler.WithSamplerLogger(l),
			trace_sampler.WithSamplerMetrics(m),
		}
		if sc.SamplingServerURL != "" {
			samplerOpts = append(samplerOpts, trace_sampler.WithServerURL(sc.SamplingServerURL))
		}
		if sc.PollInterval > 0 {
			samplerOpts = append(samplerOpts, trace_sampler.WithPollInterval(sc.PollInterval.Std()))
		}
		if sc.MaxOperations > 0 {
			samplerOpts = append(samplerOpts, trace_sampler.WithMaxOperations(sc.MaxOperations))
		}
		if sc.Param > 0 {
			initial, err := trace_sampler.NewProbabilisticSampler(sc.Param)
			if err != nil {
				return nil, err
			}
			samplerOpts = append(samplerOpts, trace_sampler.WithInitialSampler(initial))
		}
		sampler := trace_sampler.NewRemotelyControlledSampler(c.Service, samplerOpts...)
		sampler.Start()
		return sampler, nil
	}
	return nil, fmt.Errorf("unknown sampler type %q", sc.Type)
}

func (c *Configuration) buildReporter(l logger.Logger, m *metrics.Metrics) (trace_reporter.Reporter, error) {
	rc := c.Reporter
	var (
		sender trace_reporter.Sender
		err    error
	)
	if rc.CollectorEndpoint != "" {
		sender = trace_sender.NewCollectorSender(rc.CollectorEndpoint,
			trace_sender.WithCollectorLogger(l))
	} else {
		sender, err = trace_sender.NewAgentSender(rc.AgentHostPort,
			trace_sender.WithAgentLogger(l),
			trace_sender.WithAgentMetrics(m))
		if err != nil {
			return nil, err
		}
	}
	reporterOpts := []trace_reporter.ReporterOption{
		trace_reporter.WithReporterLogger(l),
		trace_reporter.WithReporterMetrics(m),
	}
	if rc.QueueSize > 0 {
		reporterOpts = append(reporterOpts, trace_reporter.WithQueueSize(rc.QueueSize))
	}
	if rc.BatchSize > 0 {
		reporterOpts = append(reporterOpts, trace_reporter.WithBatchSize(rc.BatchSize))
	}
	if rc.FlushInterval > 0 {
		reporterOpts = append(reporterOpts, trace_reporter.WithFlushInterval(rc.FlushInterval.Std()))
	}
	return trace_reporter.NewRemoteReporter(sender, nil, reporterOpts...), nil
}
