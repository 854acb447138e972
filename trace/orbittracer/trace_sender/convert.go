package trace_sender

import (
	"fmt"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sender/wire"
)

func buildWireBatch(batch *trace_models.Batch) *wire.Batch {
	out := &wire.Batch{
		Process: buildWireProcess(batch.Process),
		Spans:   make([]*wire.Span, 0, len(batch.Spans)),
	}
	for _, record := range batch.Spans {
		out.Spans = append(out.Spans, buildWireSpan(record))
	}
	return out
}

func buildWireProcess(process *trace_models.Process) *wire.Process {
	return &wire.Process{
		ServiceName: process.Service,
		Tags:        buildWireTags(process.Tags),
	}
}

func buildWireSpan(record *trace_models.Record) *wire.Span {
	sc := record.Context
	span := &wire.Span{
		TraceIdLow:    int64(sc.TraceID().Low),
		TraceIdHigh:   int64(sc.TraceID().High),
		SpanId:        int64(sc.SpanID()),
		ParentSpanId:  int64(sc.ParentID()),
		OperationName: record.OperationName,
		Flags:         int32(sc.Flags()),
		StartTime:     timeToMicros(record.StartTime),
		Duration:      record.Duration.Microseconds(),
		Tags:          buildWireTags(record.Tags),
	}
	for _, ref := range record.References {
		refType := wire.SpanRefTypeChildOf
		if ref.Type == trace_models.FollowsFromRef {
			refType = wire.SpanRefTypeFollowsFrom
		}
		span.References = append(span.References, &wire.SpanRef{
			RefType:     refType,
			TraceIdLow:  int64(ref.Context.TraceID().Low),
			TraceIdHigh: int64(ref.Context.TraceID().High),
			SpanId:      int64(ref.Context.SpanID()),
		})
	}
	for _, log := range record.Logs {
		span.Logs = append(span.Logs, &wire.Log{
			Timestamp: timeToMicros(log.Timestamp),
			Fields:    buildWireTags(log.Fields),
		})
	}
	return span
}

func buildWireTags(tags []trace_models.Tag) []*wire.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]*wire.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, buildWireTag(tag.Key, tag.Value))
	}
	return out
}

func buildWireTag(key string, value interface{}) *wire.Tag {
	tag := &wire.Tag{Key: key}
	switch v := value.(type) {
	case string:
		tag.VType = wire.TagTypeString
		tag.VStr = &v
	case bool:
		tag.VType = wire.TagTypeBool
		tag.VBool = &v
	case float64:
		tag.VType = wire.TagTypeDouble
		tag.VDouble = &v
	case float32:
		d := float64(v)
		tag.VType = wire.TagTypeDouble
		tag.VDouble = &d
	case int:
		setLong(tag, int64(v))
	case int8:
		setLong(tag, int64(v))
	case int16:
		setLong(tag, int64(v))
	case int32:
		setLong(tag, int64(v))
	case int64:
		setLong(tag, v)
	case uint:
		setLong(tag, int64(v))
	case uint8:
		setLong(tag, int64(v))
	case uint16:
		setLong(tag, int64(v))
	case uint32:
		setLong(tag, int64(v))
	case uint64:
		setLong(tag, int64(v))
	case []byte:
		tag.VType = wire.TagTypeBinary
		tag.VBinary = v
	default:
		s := fmt.Sprintf("%+v", value)
		tag.VType = wire.TagTypeString
		tag.VStr = &s
	}
	return tag
}

func setLong(tag *wire.Tag, v int64) {
	tag.VType = wire.TagTypeLong
	tag.VLong = &v
}

func timeToMicros(t time.Time) int64 {
	return t.UnixNano() / int64(time.Microsecond)
}
