package trace_models

const (
	FlagSampled = byte(1)
	FlagDebug   = byte(2)
)

// SpanContext is the propagated identity of a span: trace/span/parent ids,
// sampling flags and baggage. It is immutable; deriving a context with more
// baggage copies the map so a child never mutates its parent's baggage.
type SpanContext struct {
	traceID  TraceID
	spanID   SpanID
	parentID SpanID
	flags    byte

	baggage map[string]string

	// debugID is the correlation value of a forced debug trace. It is only
	// set on contexts synthesized from a debug header.
	debugID string
}

func NewSpanContext(traceID TraceID, spanID, parentID SpanID, flags byte, baggage map[string]string) SpanContext {
	return SpanContext{
		traceID:  traceID,
		spanID:   spanID,
		parentID: parentID,
		flags:    flags,
		baggage:  baggage,
	}
}

// NewDebugSpanContext builds the root context for a trace forced by a
// debug-correlation header. It is always sampled and marked debug so it
// survives downstream sampling and capacity drops.
func NewDebugSpanContext(traceID TraceID, debugID string) SpanContext {
	return SpanContext{
		traceID: traceID,
		flags:   FlagSampled | FlagDebug,
		debugID: debugID,
	}
}

func (c SpanContext) TraceID() TraceID {
	return c.traceID
}

func (c SpanContext) SpanID() SpanID {
	return c.spanID
}

func (c SpanContext) ParentID() SpanID {
	return c.parentID
}

func (c SpanContext) Flags() byte {
	return c.flags
}

func (c SpanContext) IsSampled() bool {
	return c.flags&FlagSampled == FlagSampled
}

func (c SpanContext) IsDebug() bool {
	return c.flags&FlagDebug == FlagDebug
}

func (c SpanContext) DebugID() string {
	return c.debugID
}

func (c SpanContext) IsValid() bool {
	return c.traceID.IsValid() && c.spanID != 0
}

func (c SpanContext) BaggageItem(key string) string {
	return c.baggage[key]
}

func (c SpanContext) ForeachBaggageItem(handler func(k, v string) bool) {
	for k, v := range c.baggage {
		if !handler(k, v) {
			break
		}
	}
}

// WithBaggageItem returns a derived context carrying the extra entry. The
// receiver's baggage is copied, never mutated.
func (c SpanContext) WithBaggageItem(key, value string) SpanContext {
	baggage := make(map[string]string, len(c.baggage)+1)
	for k, v := range c.baggage {
		baggage[k] = v
	}
	baggage[key] = value
	c.baggage = baggage
	return c
}
