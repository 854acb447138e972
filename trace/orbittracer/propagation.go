package orbittracer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/id_generator"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

type BuiltinFormat byte

const (
	// TextMap encodes the context into a string map carrier.
	TextMap BuiltinFormat = iota
	// HTTPHeaders is TextMap with URL-escaped values, for http.Header.
	HTTPHeaders
	// Binary encodes the context into a fixed-width byte layout.
	Binary
)

var (
	ErrUnsupportedFormat    = errors.New("unknown or unsupported Inject/Extract format")
	ErrInvalidCarrier       = errors.New("invalid Inject/Extract carrier")
	ErrSpanContextNotFound  = errors.New("no span context found in carrier")
	ErrMalformedSpanContext = errors.New("malformed span context in carrier")
)

type TextMapWriter interface {
	Set(key, val string)
}

type TextMapReader interface {
	ForeachKey(handler func(key, val string) error) error
}

type TextMapCarrier map[string]string

func (c TextMapCarrier) Set(key, val string) {
	c[key] = val
}

func (c TextMapCarrier) ForeachKey(handler func(key, val string) error) error {
	for k, v := range c {
		if err := handler(k, v); err != nil {
			return err
		}
	}
	return nil
}

type HTTPHeadersCarrier http.Header

func (c HTTPHeadersCarrier) Set(key, val string) {
	h := http.Header(c)
	h.Set(key, val)
}

func (c HTTPHeadersCarrier) ForeachKey(handler func(key, val string) error) error {
	for k, vals := range c {
		for _, v := range vals {
			if err := handler(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

type Injector interface {
	Inject(sc trace_models.SpanContext, carrier interface{}) error
}

type Extractor interface {
	Extract(carrier interface{}) (trace_models.SpanContext, error)
}

// TextMapPropagator reads and writes the textual header form of a span
// context. With urlEncoding set, values go through URL escaping so they are
// safe inside HTTP headers.
type TextMapPropagator struct {
	urlEncoding bool
	idGenerator *id_generator.IdGenerator
	metrics     *metrics.Metrics
}

func NewTextMapPropagator(idGen *id_generator.IdGenerator, m *metrics.Metrics) *TextMapPropagator {
	return &TextMapPropagator{idGenerator: idGen, metrics: m}
}

func NewHTTPHeadersPropagator(idGen *id_generator.IdGenerator, m *metrics.Metrics) *TextMapPropagator {
	return &TextMapPropagator{urlEncoding: true, idGenerator: idGen, metrics: m}
}

var _ Injector = &TextMapPropagator{}
var _ Extractor = &TextMapPropagator{}

func (p *TextMapPropagator) Inject(sc trace_models.SpanContext, abstractCarrier interface{}) error {
	carrier, ok := abstractCarrier.(TextMapWriter)
	if !ok {
		return ErrInvalidCarrier
	}
	carrier.Set(TraceContextHeaderName, spanContextToString(sc))
	sc.ForeachBaggageItem(func(k, v string) bool {
		// baggage keys are case-insensitive on the wire and extraction
		// lowercases them, so normalize here to keep the key set stable
		// across hops
		carrier.Set(TraceBaggageHeaderPrefix+strings.ToLower(k), p.encodeValue(v))
		return true
	})
	return nil
}

func (p *TextMapPropagator) Extract(abstractCarrier interface{}) (trace_models.SpanContext, error) {
	carrier, ok := abstractCarrier.(TextMapReader)
	if !ok {
		return trace_models.SpanContext{}, ErrInvalidCarrier
	}
	var (
		ctx     trace_models.SpanContext
		found   bool
		debugID string
		baggage map[string]string
	)
	err := carrier.ForeachKey(func(rawKey, value string) error {
		key := strings.ToLower(rawKey)
		switch {
		case key == TraceContextHeaderName:
			parsed, err := spanContextFromString(p.decodeValue(value))
			if err != nil {
				return err
			}
			ctx = parsed
			found = true
		case key == JaegerDebugHeader:
			debugID = p.decodeValue(value)
		case key == JaegerBaggageHeader:
			for k, v := range parseCommaSeparatedMap(p.decodeValue(value)) {
				if baggage == nil {
					baggage = make(map[string]string)
				}
				baggage[k] = v
			}
		case strings.HasPrefix(key, TraceBaggageHeaderPrefix):
			if baggage == nil {
				baggage = make(map[string]string)
			}
			baggage[key[len(TraceBaggageHeaderPrefix):]] = p.decodeValue(value)
		}
		return nil
	})
	if err != nil {
		p.metrics.DecodingErrors.Inc(1)
		return trace_models.SpanContext{}, err
	}
	if !found {
		if debugID != "" {
			// no incoming trace, but the caller demands one: start a
			// forcibly sampled debug trace carrying the correlation value
			debugCtx := trace_models.NewDebugSpanContext(p.idGenerator.NewTraceID(), debugID)
			for k, v := range baggage {
				debugCtx = debugCtx.WithBaggageItem(k, v)
			}
			return debugCtx, nil
		}
		return trace_models.SpanContext{}, ErrSpanContextNotFound
	}
	if baggage != nil {
		ctx = trace_models.NewSpanContext(ctx.TraceID(), ctx.SpanID(), ctx.ParentID(), ctx.Flags(), baggage)
	}
	return ctx, nil
}

func (p *TextMapPropagator) encodeValue(v string) string {
	if p.urlEncoding {
		return url.QueryEscape(v)
	}
	return v
}

func (p *TextMapPropagator) decodeValue(v string) string {
	if p.urlEncoding {
		if decoded, err := url.QueryUnescape(v); err == nil {
			return decoded
		}
	}
	return v
}

func spanContextToString(sc trace_models.SpanContext) string {
	return fmt.Sprintf("%s:%s:%s:%x", sc.TraceID(), sc.SpanID(), sc.ParentID(), sc.Flags())
}

func spanContextFromString(value string) (trace_models.SpanContext, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	traceID, err := trace_models.TraceIDFromString(parts[0])
	if err != nil {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	spanID, err := trace_models.SpanIDFromString(parts[1])
	if err != nil {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	parentID, err := trace_models.SpanIDFromString(parts[2])
	if err != nil && parts[2] != "" {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	flags, err := strconv.ParseUint(parts[3], 16, 8)
	if err != nil {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	if !traceID.IsValid() || spanID == 0 {
		return trace_models.SpanContext{}, ErrMalformedSpanContext
	}
	return trace_models.NewSpanContext(traceID, spanID, parentID, byte(flags), nil), nil
}

func parseCommaSeparatedMap(value string) map[string]string {
	pairs := map[string]string{}
	for _, entry := range strings.Split(value, ",") {
		kv := strings.SplitN(strings.TrimSpace(entry), "=", 2)
		if len(kv) == 2 {
			pairs[kv[0]] = kv[1]
		}
	}
	return pairs
}

// BinaryPropagator mirrors the text form in a fixed-width big-endian layout
// for systems that propagate context out-of-band as raw bytes.
type BinaryPropagator struct {
	metrics *metrics.Metrics
}

func NewBinaryPropagator(m *metrics.Metrics) *BinaryPropagator {
	return &BinaryPropagator{metrics: m}
}

var _ Injector = &BinaryPropagator{}
var _ Extractor = &BinaryPropagator{}

func (p *BinaryPropagator) Inject(sc trace_models.SpanContext, abstractCarrier interface{}) error {
	carrier, ok := abstractCarrier.(io.Writer)
	if !ok {
		return ErrInvalidCarrier
	}
	for _, id := range []uint64{sc.TraceID().High, sc.TraceID().Low, uint64(sc.SpanID()), uint64(sc.ParentID())} {
		if err := binary.Write(carrier, binary.BigEndian, id); err != nil {
			return err
		}
	}
	if err := binary.Write(carrier, binary.BigEndian, sc.Flags()); err != nil {
		return err
	}
	count := int32(0)
	sc.ForeachBaggageItem(func(k, v string) bool {
		count++
		return true
	})
	if err := binary.Write(carrier, binary.BigEndian, count); err != nil {
		return err
	}
	var writeErr error
	sc.ForeachBaggageItem(func(k, v string) bool {
		if writeErr = writeLenPrefixedString(carrier, k); writeErr != nil {
			return false
		}
		if writeErr = writeLenPrefixedString(carrier, v); writeErr != nil {
			return false
		}
		return true
	})
	return writeErr
}

func (p *BinaryPropagator) Extract(abstractCarrier interface{}) (trace_models.SpanContext, error) {
	carrier, ok := abstractCarrier.(io.Reader)
	if !ok {
		return trace_models.SpanContext{}, ErrInvalidCarrier
	}
	var traceID trace_models.TraceID
	if err := binary.Read(carrier, binary.BigEndian, &traceID.High); err != nil {
		if err == io.EOF {
			return trace_models.SpanContext{}, ErrSpanContextNotFound
		}
		return p.malformed()
	}
	var (
		low, spanID, parentID uint64
		flags                 byte
	)
	if err := binary.Read(carrier, binary.BigEndian, &low); err != nil {
		return p.malformed()
	}
	traceID.Low = low
	if err := binary.Read(carrier, binary.BigEndian, &spanID); err != nil {
		return p.malformed()
	}
	if err := binary.Read(carrier, binary.BigEndian, &parentID); err != nil {
		return p.malformed()
	}
	if err := binary.Read(carrier, binary.BigEndian, &flags); err != nil {
		return p.malformed()
	}
	var count int32
	if err := binary.Read(carrier, binary.BigEndian, &count); err != nil {
		return p.malformed()
	}
	var baggage map[string]string
	if count > 0 {
		// count is untrusted, size the map as entries actually arrive
		baggage = make(map[string]string)
	}
	for i := int32(0); i < count; i++ {
		key, err := readLenPrefixedString(carrier)
		if err != nil {
			return p.malformed()
		}
		value, err := readLenPrefixedString(carrier)
		if err != nil {
			return p.malformed()
		}
		baggage[key] = value
	}
	if !traceID.IsValid() || spanID == 0 {
		return p.malformed()
	}
	return trace_models.NewSpanContext(traceID, trace_models.SpanID(spanID), trace_models.SpanID(parentID), flags, baggage), nil
}

func (p *BinaryPropagator) malformed() (trace_models.SpanContext, error) {
	p.metrics.DecodingErrors.Inc(1)
	return trace_models.SpanContext{}, ErrMalformedSpanContext
}

func writeLenPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(s))); err != nil {
		return err
	}
	if n, err := io.WriteString(w, s); err != nil || n != len(s) {
		return err
	}
	return nil
}

// maxBinaryBaggageLength caps one length-prefixed key or value in a binary
// carrier. The prefix is untrusted input and must never size an allocation.
const maxBinaryBaggageLength = 1 << 16

func readLenPrefixedString(r io.Reader) (string, error) {
	var l int32
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		return "", err
	}
	if l < 0 || l > maxBinaryBaggageLength {
		return "", ErrMalformedSpanContext
	}
	sb := strings.Builder{}
	sb.Grow(int(l))
	if n, err := io.CopyN(&sb, r, int64(l)); err != nil || int32(n) != l {
		return "", ErrMalformedSpanContext
	}
	return sb.String(), nil
}
