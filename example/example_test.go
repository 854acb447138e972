package example

import (
	"context"
	"testing"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/config"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_reporter"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sampler"
)

func TestTracer_Manual(t *testing.T) {
	// in-memory reporter so the example runs without an agent
	reporter := trace_reporter.NewInMemoryReporter()
	tracer := orbittracer.NewTracer("example_service",
		trace_sampler.NewConstSampler(true),
		reporter,
		orbittracer.WithProcessTag("deployment", "staging"),
	)
	defer tracer.Close(context.Background())

	root := tracer.StartSpan("handle_request")
	root.SetTag("http.method", "GET")
	root.SetBaggageItem("tenant", "acme")

	child := tracer.StartSpan("query_db", orbittracer.ChildOf(root.Context()))
	child.LogKV("event", "query", "rows", 42)
	child.Finish()
	root.Finish()

	if got := len(reporter.GetRecords()); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}
}

func TestTracer_FromConfiguration(t *testing.T) {
	cfg, err := config.Load([]byte(`
service: example_service
sampler:
  type: probabilistic
  param: 0.5
reporter:
  queue_size: 200
  flush_interval: 500ms
tags:
  region: eu-west-1
`))
	if err != nil {
		t.Fatal(err)
	}
	tracer, err := cfg.NewTracer(config.WithLogger(&logger.StdLogger{}))
	if err != nil {
		t.Fatal(err)
	}

	span := tracer.StartSpan("do_work")
	span.Finish()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tracer.Close(ctx)
}
