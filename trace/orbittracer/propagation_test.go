package orbittracer

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/id_generator"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

func newTextPropagator() *TextMapPropagator {
	return NewTextMapPropagator(id_generator.New(), metrics.NullMetrics())
}

func TestTextMapPropagator_RoundTrip(t *testing.T) {
	sc := trace_models.NewSpanContext(
		trace_models.TraceID{High: 0xdead, Low: 0xbeef},
		0x1234, 0x5678, trace_models.FlagSampled,
		map[string]string{"tenant": "acme", "user": "u-1"},
	)
	propagator := newTextPropagator()
	carrier := TextMapCarrier{}
	require.NoError(t, propagator.Inject(sc, carrier))

	assert.Equal(t, "dead000000000000beef:1234:5678:1", carrier[TraceContextHeaderName])

	extracted, err := propagator.Extract(carrier)
	require.NoError(t, err)
	assert.Equal(t, sc.TraceID(), extracted.TraceID())
	assert.Equal(t, sc.SpanID(), extracted.SpanID())
	assert.Equal(t, sc.ParentID(), extracted.ParentID())
	assert.True(t, extracted.IsSampled())
	assert.Equal(t, "acme", extracted.BaggageItem("tenant"))
	assert.Equal(t, "u-1", extracted.BaggageItem("user"))
}

func TestTextMapPropagator_NoContext(t *testing.T) {
	propagator := newTextPropagator()
	_, err := propagator.Extract(TextMapCarrier{"unrelated": "header"})
	assert.Equal(t, ErrSpanContextNotFound, err)
}

func TestTextMapPropagator_Malformed(t *testing.T) {
	propagator := newTextPropagator()
	for _, value := range []string{
		"not-a-context",
		"1:2:3",
		"xyz:1:0:1",
		"1:xyz:0:1",
		"1:2:0:zz",
		"0:1:0:1", // invalid trace id
		"1:0:0:1", // invalid span id
	} {
		carrier := TextMapCarrier{TraceContextHeaderName: value}
		_, err := propagator.Extract(carrier)
		assert.Error(t, err, "value %q", value)
		assert.NotEqual(t, ErrSpanContextNotFound, err, "value %q", value)
	}
}

func TestTextMapPropagator_DecodingErrorsCounted(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	propagator := NewTextMapPropagator(id_generator.New(), metrics.NewMetrics(factory))
	_, err := propagator.Extract(TextMapCarrier{TraceContextHeaderName: "garbage"})
	require.Error(t, err)
	assert.Equal(t, int64(1), factory.CounterValue("decoding_errors"))
}

func TestTextMapPropagator_DebugHeader(t *testing.T) {
	propagator := newTextPropagator()
	carrier := TextMapCarrier{
		JaegerDebugHeader:              "ticket-42",
		TraceBaggageHeaderPrefix + "k": "v",
	}
	extracted, err := propagator.Extract(carrier)
	require.NoError(t, err)
	assert.True(t, extracted.IsSampled())
	assert.True(t, extracted.IsDebug())
	assert.Equal(t, "ticket-42", extracted.DebugID())
	assert.True(t, extracted.TraceID().IsValid())
	assert.Equal(t, "v", extracted.BaggageItem("k"))
}

func TestTextMapPropagator_DebugHeaderIgnoredWithContext(t *testing.T) {
	propagator := newTextPropagator()
	carrier := TextMapCarrier{
		TraceContextHeaderName: "ab:cd:0:1",
		JaegerDebugHeader:      "ticket-42",
	}
	extracted, err := propagator.Extract(carrier)
	require.NoError(t, err)
	assert.Equal(t, trace_models.TraceID{Low: 0xab}, extracted.TraceID())
	assert.Empty(t, extracted.DebugID())
}

func TestTextMapPropagator_JaegerBaggageHeader(t *testing.T) {
	propagator := newTextPropagator()
	carrier := TextMapCarrier{
		TraceContextHeaderName: "ab:cd:0:1",
		JaegerBaggageHeader:    "k1=v1, k2=v2",
	}
	extracted, err := propagator.Extract(carrier)
	require.NoError(t, err)
	assert.Equal(t, "v1", extracted.BaggageItem("k1"))
	assert.Equal(t, "v2", extracted.BaggageItem("k2"))
}

func TestTextMapPropagator_MixedCaseBaggageKey(t *testing.T) {
	sc := trace_models.NewSpanContext(trace_models.TraceID{Low: 1}, 2, 0, trace_models.FlagSampled,
		map[string]string{"UserName": "u-1"})
	propagator := newTextPropagator()
	carrier := TextMapCarrier{}
	require.NoError(t, propagator.Inject(sc, carrier))

	// keys go out lowercased so injecting and extracting agree on the set
	assert.Equal(t, "u-1", carrier[TraceBaggageHeaderPrefix+"username"])

	extracted, err := propagator.Extract(carrier)
	require.NoError(t, err)
	assert.Equal(t, "u-1", extracted.BaggageItem("username"))
}

func TestHTTPHeadersPropagator(t *testing.T) {
	propagator := NewHTTPHeadersPropagator(id_generator.New(), metrics.NullMetrics())
	sc := trace_models.NewSpanContext(trace_models.TraceID{Low: 1}, 2, 0, trace_models.FlagSampled,
		map[string]string{"key": "a value with spaces"})

	header := http.Header{}
	require.NoError(t, propagator.Inject(sc, HTTPHeadersCarrier(header)))
	// header values stay URL-safe
	assert.Equal(t, "a+value+with+spaces", header.Get(TraceBaggageHeaderPrefix+"key"))

	extracted, err := propagator.Extract(HTTPHeadersCarrier(header))
	require.NoError(t, err)
	assert.Equal(t, "a value with spaces", extracted.BaggageItem("key"))
}

func TestBinaryPropagator_RoundTrip(t *testing.T) {
	propagator := NewBinaryPropagator(metrics.NullMetrics())
	sc := trace_models.NewSpanContext(
		trace_models.TraceID{High: 1, Low: 2}, 3, 4,
		trace_models.FlagSampled|trace_models.FlagDebug,
		map[string]string{"a": "1", "b": "2"},
	)
	buf := &bytes.Buffer{}
	require.NoError(t, propagator.Inject(sc, buf))

	extracted, err := propagator.Extract(buf)
	require.NoError(t, err)
	assert.Equal(t, sc.TraceID(), extracted.TraceID())
	assert.Equal(t, sc.SpanID(), extracted.SpanID())
	assert.Equal(t, sc.ParentID(), extracted.ParentID())
	assert.Equal(t, sc.Flags(), extracted.Flags())
	assert.Equal(t, "1", extracted.BaggageItem("a"))
	assert.Equal(t, "2", extracted.BaggageItem("b"))
}

func TestBinaryPropagator_EmptyAndTruncated(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	propagator := NewBinaryPropagator(metrics.NewMetrics(factory))

	_, err := propagator.Extract(&bytes.Buffer{})
	assert.Equal(t, ErrSpanContextNotFound, err)

	_, err = propagator.Extract(bytes.NewReader([]byte{0, 1, 2}))
	assert.Equal(t, ErrMalformedSpanContext, err)
	assert.Equal(t, int64(1), factory.CounterValue("decoding_errors"))
}

func TestBinaryPropagator_HugeBaggageLengthRejected(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	propagator := NewBinaryPropagator(metrics.NewMetrics(factory))

	// a valid fixed-width header followed by one baggage entry whose length
	// prefix claims far more data than the carrier holds; it must be rejected
	// without allocating the claimed size
	buf := &bytes.Buffer{}
	for _, id := range []uint64{1, 2, 3, 4} {
		require.NoError(t, binary.Write(buf, binary.BigEndian, id))
	}
	require.NoError(t, binary.Write(buf, binary.BigEndian, byte(trace_models.FlagSampled)))
	require.NoError(t, binary.Write(buf, binary.BigEndian, int32(1)))
	require.NoError(t, binary.Write(buf, binary.BigEndian, int32(1<<30)))
	buf.WriteString("k")

	_, err := propagator.Extract(buf)
	assert.Equal(t, ErrMalformedSpanContext, err)
	assert.Equal(t, int64(1), factory.CounterValue("decoding_errors"))
}

func TestPropagator_InvalidCarrier(t *testing.T) {
	text := newTextPropagator()
	assert.Equal(t, ErrInvalidCarrier, text.Inject(trace_models.SpanContext{}, 42))
	_, err := text.Extract(42)
	assert.Equal(t, ErrInvalidCarrier, err)

	bin := NewBinaryPropagator(metrics.NullMetrics())
	assert.Equal(t, ErrInvalidCarrier, bin.Inject(trace_models.SpanContext{}, 42))
	_, err = bin.Extract(42)
	assert.Equal(t, ErrInvalidCarrier, err)
}
