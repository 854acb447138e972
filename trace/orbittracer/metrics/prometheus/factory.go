// Package prometheus exposes the tracer's internal counters on a prometheus
// registry so that drop and failure rates are visible to operators.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
)

type Factory struct {
	namespace  string
	registerer prometheus.Registerer
}

type FactoryOption func(*Factory)

func WithRegisterer(registerer prometheus.Registerer) FactoryOption {
	return func(f *Factory) {
		f.registerer = registerer
	}
}

func WithNamespace(namespace string) FactoryOption {
	return func(f *Factory) {
		f.namespace = namespace
	}
}

func New(opts ...FactoryOption) *Factory {
	f := &Factory{
		namespace:  "orbit_tracer",
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ metrics.Factory = &Factory{}

func (f *Factory) Counter(name string) metrics.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Name:      name,
	})
	return &counter{c: f.register(c).(prometheus.Counter)}
}

func (f *Factory) Gauge(name string) metrics.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: f.namespace,
		Name:      name,
	})
	return &gauge{g: f.register(g).(prometheus.Gauge)}
}

// register tolerates duplicate registration so that two tracers sharing a
// registry share the underlying collector.
func (f *Factory) register(c prometheus.Collector) prometheus.Collector {
	if err := f.registerer.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

type counter struct {
	c prometheus.Counter
}

func (c *counter) Inc(delta int64) {
	c.c.Add(float64(delta))
}

type gauge struct {
	g prometheus.Gauge
}

func (g *gauge) Update(value int64) {
	g.g.Set(float64(value))
}
