package orbittracer

const (
	// TraceContextHeaderName carries the span context as
	// {traceIdHex}:{spanIdHex}:{parentIdHex}:{flagsHex}.
	TraceContextHeaderName = "uber-trace-id"

	// TraceBaggageHeaderPrefix prefixes one header per baggage entry.
	TraceBaggageHeaderPrefix = "uberctx-"

	// JaegerBaggageHeader carries comma-separated key=value baggage pairs
	// in a single header.
	JaegerBaggageHeader = "jaeger-baggage"

	// JaegerDebugHeader forces a sampled debug trace correlated by the
	// header value, regardless of sampling and capacity drops.
	JaegerDebugHeader = "jaeger-debug-id"
)

// Process tags stamped on every batch.
const (
	TracerHostnameTagKey = "hostname"
	TracerIPTagKey       = "ip"
	TracerUUIDTagKey     = "client-uuid"
	TracerVersionTagKey  = "client-version"
)

const clientVersion = "orbit-go-1.0"
