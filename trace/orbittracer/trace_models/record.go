package trace_models

import "time"

type Tag struct {
	Key   string
	Value interface{}
}

// LogRecord is one timestamped event attached to a span.
type LogRecord struct {
	Timestamp time.Time
	Fields    []Tag
}

type ReferenceType int

const (
	ChildOfRef ReferenceType = iota
	FollowsFromRef
)

type Reference struct {
	Type    ReferenceType
	Context SpanContext
}

// Record is a finished unit of work. It is created once when the span
// finishes, is immutable afterwards, and is owned by the reporter queue
// until flushed or dropped.
type Record struct {
	Context       SpanContext
	OperationName string
	StartTime     time.Time
	Duration      time.Duration
	Tags          []Tag
	Logs          []LogRecord
	References    []Reference
}

// Process describes the emitting service; it rides along with every batch
// because the wire format requires it on each payload.
type Process struct {
	Service string
	Tags    []Tag
}

// Batch is the transient unit handed from the reporter to a sender.
type Batch struct {
	Process *Process
	Spans   []*Record
}
