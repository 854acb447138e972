package orbittracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sampler"
)

func TestSpan_SetOperationName(t *testing.T) {
	tracer, reporter, _ := newTestTracer(trace_sampler.NewConstSampler(true))
	defer tracer.Close(context.Background())

	span := tracer.StartSpan("preliminary")
	span.SetOperationName("final")
	assert.Equal(t, "final", span.OperationName())
	span.Finish()

	records := reporter.GetRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "final", records[0].OperationName)
}

func TestSpan_LogKV(t *testing.T) {
	tracer, reporter, _ := newTestTracer(trace_sampler.NewConstSampler(true))
	defer tracer.Close(context.Background())

	span := tracer.StartSpan("op")
	span.LogKV("event", "retry", "attempt", 2)
	// a trailing key without a value is ignored
	span.LogKV("event", "done", "orphan")
	span.Finish()

	records := reporter.GetRecords()
	require.Len(t, records, 1)
	require.Len(t, records[0].Logs, 2)
	assert.Equal(t, []trace_models.Tag{
		{Key: "event", Value: "retry"},
		{Key: "attempt", Value: 2},
	}, records[0].Logs[0].Fields)
	assert.Equal(t, []trace_models.Tag{{Key: "event", Value: "done"}}, records[0].Logs[1].Fields)
}

func TestSpan_BaggageCopyOnWrite(t *testing.T) {
	tracer, _, _ := newTestTracer(trace_sampler.NewConstSampler(true))
	defer tracer.Close(context.Background())

	span := tracer.StartSpan("op")
	before := span.Context()
	span.SetBaggageItem("k", "v")

	assert.Equal(t, "v", span.BaggageItem("k"))
	// the previously captured context is unaffected
	assert.Equal(t, "", before.BaggageItem("k"))
	// ids are stable across baggage writes
	assert.Equal(t, before.SpanID(), span.Context().SpanID())
}

func TestSpan_MutationsAfterFinishIgnored(t *testing.T) {
	tracer, reporter, _ := newTestTracer(trace_sampler.NewConstSampler(true))
	defer tracer.Close(context.Background())

	span := tracer.StartSpan("op")
	span.Finish()
	span.SetTag("late", true)
	span.LogKV("event", "late")

	records := reporter.GetRecords()
	require.Len(t, records, 1)
	record := records[0]
	for _, tag := range record.Tags {
		assert.NotEqual(t, "late", tag.Key)
	}
}
