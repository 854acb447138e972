package orbittracer

import (
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

type PropagatorConfig struct {
	Format    interface{}
	Injector  Injector
	Extractor Extractor
}

type TracerConfig struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Tags are added to the process info of every batch.
	Tags []trace_models.Tag

	Propagators []PropagatorConfig
}

type TracerOption func(*TracerConfig)

func WithLogger(l logger.Logger) TracerOption {
	return func(config *TracerConfig) {
		config.Logger = l
	}
}

func WithMetrics(m *metrics.Metrics) TracerOption {
	return func(config *TracerConfig) {
		config.Metrics = m
	}
}

func WithProcessTag(key string, value interface{}) TracerOption {
	return func(config *TracerConfig) {
		config.Tags = append(config.Tags, trace_models.Tag{Key: key, Value: value})
	}
}

// WithPropagator registers a custom injector/extractor pair for a format,
// overriding the builtin one if the format collides.
func WithPropagator(format interface{}, injector Injector, extractor Extractor) TracerOption {
	return func(config *TracerConfig) {
		config.Propagators = append(config.Propagators, PropagatorConfig{
			Format:    format,
			Injector:  injector,
			Extractor: extractor,
		})
	}
}

func newDefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Logger: &logger.NoopLogger{},
	}
}
