package trace_sender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sender/wire"
)

func TestBuildWireTag(t *testing.T) {
	tests := []struct {
		value interface{}
		check func(t *testing.T, tag *wire.Tag)
	}{
		{"text", func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeString, tag.VType)
			assert.Equal(t, "text", *tag.VStr)
		}},
		{true, func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeBool, tag.VType)
			assert.True(t, *tag.VBool)
		}},
		{3.5, func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeDouble, tag.VType)
			assert.Equal(t, 3.5, *tag.VDouble)
		}},
		{float32(0.5), func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeDouble, tag.VType)
			assert.Equal(t, 0.5, *tag.VDouble)
		}},
		{int(-3), func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeLong, tag.VType)
			assert.Equal(t, int64(-3), *tag.VLong)
		}},
		{uint16(9), func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeLong, tag.VType)
			assert.Equal(t, int64(9), *tag.VLong)
		}},
		{[]byte{1, 2}, func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeBinary, tag.VType)
			assert.Equal(t, []byte{1, 2}, tag.VBinary)
		}},
		{struct{ A int }{7}, func(t *testing.T, tag *wire.Tag) {
			assert.Equal(t, wire.TagTypeString, tag.VType)
			assert.Equal(t, "{A:7}", *tag.VStr)
		}},
	}
	for _, tc := range tests {
		tag := buildWireTag("k", tc.value)
		assert.Equal(t, "k", tag.Key)
		tc.check(t, tag)
	}
}

func TestBuildWireSpan(t *testing.T) {
	start := time.Unix(1600000000, 2000)
	parentCtx := trace_models.NewSpanContext(trace_models.TraceID{High: 1, Low: 2}, 3, 0, trace_models.FlagSampled, nil)
	record := &trace_models.Record{
		Context:       trace_models.NewSpanContext(trace_models.TraceID{High: 1, Low: 2}, 4, 3, trace_models.FlagSampled|trace_models.FlagDebug, nil),
		OperationName: "op",
		StartTime:     start,
		Duration:      1500 * time.Microsecond,
		Tags:          []trace_models.Tag{{Key: "k", Value: "v"}},
		Logs:          []trace_models.LogRecord{{Timestamp: start.Add(time.Millisecond), Fields: []trace_models.Tag{{Key: "event", Value: "x"}}}},
		References: []trace_models.Reference{
			{Type: trace_models.ChildOfRef, Context: parentCtx},
			{Type: trace_models.FollowsFromRef, Context: parentCtx},
		},
	}

	span := buildWireSpan(record)
	assert.Equal(t, int64(2), span.TraceIdLow)
	assert.Equal(t, int64(1), span.TraceIdHigh)
	assert.Equal(t, int64(4), span.SpanId)
	assert.Equal(t, int64(3), span.ParentSpanId)
	assert.Equal(t, "op", span.OperationName)
	assert.Equal(t, int32(3), span.Flags)
	assert.Equal(t, start.UnixNano()/1000, span.StartTime)
	assert.Equal(t, int64(1500), span.Duration)
	require.Len(t, span.References, 2)
	assert.Equal(t, wire.SpanRefTypeChildOf, span.References[0].RefType)
	assert.Equal(t, wire.SpanRefTypeFollowsFrom, span.References[1].RefType)
	require.Len(t, span.Logs, 1)
	assert.Len(t, span.Logs[0].Fields, 1)
}

func TestBuildWireBatch(t *testing.T) {
	batch := buildWireBatch(&trace_models.Batch{
		Process: &trace_models.Process{Service: "svc", Tags: []trace_models.Tag{{Key: "hostname", Value: "h"}}},
		Spans: []*trace_models.Record{
			{Context: trace_models.NewSpanContext(trace_models.TraceID{Low: 1}, 2, 0, 1, nil), OperationName: "a"},
			{Context: trace_models.NewSpanContext(trace_models.TraceID{Low: 1}, 3, 2, 1, nil), OperationName: "b"},
		},
	})
	assert.Equal(t, "svc", batch.Process.ServiceName)
	require.Len(t, batch.Spans, 2)
	assert.Equal(t, "a", batch.Spans[0].OperationName)
}
