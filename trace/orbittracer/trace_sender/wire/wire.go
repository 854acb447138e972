// Package wire holds the Thrift wire model for span batches. Field ids and
// ordering follow the Jaeger batch schema so payloads are readable by stock
// agents and collectors; encoding is deterministic by construction.
package wire

import (
	"github.com/apache/thrift/lib/go/thrift"
)

type TagType int32

const (
	TagTypeString TagType = 0
	TagTypeDouble TagType = 1
	TagTypeBool   TagType = 2
	TagTypeLong   TagType = 3
	TagTypeBinary TagType = 4
)

type SpanRefType int32

const (
	SpanRefTypeChildOf     SpanRefType = 0
	SpanRefTypeFollowsFrom SpanRefType = 1
)

type Tag struct {
	Key     string
	VType   TagType
	VStr    *string
	VDouble *float64
	VBool   *bool
	VLong   *int64
	VBinary []byte
}

type Log struct {
	Timestamp int64 // microseconds since epoch
	Fields    []*Tag
}

type SpanRef struct {
	RefType     SpanRefType
	TraceIdLow  int64
	TraceIdHigh int64
	SpanId      int64
}

type Span struct {
	TraceIdLow    int64
	TraceIdHigh   int64
	SpanId        int64
	ParentSpanId  int64
	OperationName string
	References    []*SpanRef
	Flags         int32
	StartTime     int64 // microseconds since epoch
	Duration      int64 // microseconds
	Tags          []*Tag
	Logs          []*Log
}

type Process struct {
	ServiceName string
	Tags        []*Tag
}

type Batch struct {
	Process *Process
	Spans   []*Span
}

func (t *Tag) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("Tag"); err != nil {
		return err
	}
	if err := writeStringField(oprot, "key", 1, t.Key); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin("vType", thrift.I32, 2); err != nil {
		return err
	}
	if err := oprot.WriteI32(int32(t.VType)); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if t.VStr != nil {
		if err := writeStringField(oprot, "vStr", 3, *t.VStr); err != nil {
			return err
		}
	}
	if t.VDouble != nil {
		if err := oprot.WriteFieldBegin("vDouble", thrift.DOUBLE, 4); err != nil {
			return err
		}
		if err := oprot.WriteDouble(*t.VDouble); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if t.VBool != nil {
		if err := oprot.WriteFieldBegin("vBool", thrift.BOOL, 5); err != nil {
			return err
		}
		if err := oprot.WriteBool(*t.VBool); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if t.VLong != nil {
		if err := writeI64Field(oprot, "vLong", 6, *t.VLong); err != nil {
			return err
		}
	}
	if t.VBinary != nil {
		if err := oprot.WriteFieldBegin("vBinary", thrift.STRING, 7); err != nil {
			return err
		}
		if err := oprot.WriteBinary(t.VBinary); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func (l *Log) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("Log"); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "timestamp", 1, l.Timestamp); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin("fields", thrift.LIST, 2); err != nil {
		return err
	}
	if err := writeTagList(oprot, l.Fields); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func (r *SpanRef) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("SpanRef"); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin("refType", thrift.I32, 1); err != nil {
		return err
	}
	if err := oprot.WriteI32(int32(r.RefType)); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "traceIdLow", 2, r.TraceIdLow); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "traceIdHigh", 3, r.TraceIdHigh); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "spanId", 4, r.SpanId); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func (s *Span) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("Span"); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "traceIdLow", 1, s.TraceIdLow); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "traceIdHigh", 2, s.TraceIdHigh); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "spanId", 3, s.SpanId); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "parentSpanId", 4, s.ParentSpanId); err != nil {
		return err
	}
	if err := writeStringField(oprot, "operationName", 5, s.OperationName); err != nil {
		return err
	}
	if s.References != nil {
		if err := oprot.WriteFieldBegin("references", thrift.LIST, 6); err != nil {
			return err
		}
		if err := oprot.WriteListBegin(thrift.STRUCT, len(s.References)); err != nil {
			return err
		}
		for _, ref := range s.References {
			if err := ref.Write(oprot); err != nil {
				return err
			}
		}
		if err := oprot.WriteListEnd(); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := oprot.WriteFieldBegin("flags", thrift.I32, 7); err != nil {
		return err
	}
	if err := oprot.WriteI32(s.Flags); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "startTime", 8, s.StartTime); err != nil {
		return err
	}
	if err := writeI64Field(oprot, "duration", 9, s.Duration); err != nil {
		return err
	}
	if s.Tags != nil {
		if err := oprot.WriteFieldBegin("tags", thrift.LIST, 10); err != nil {
			return err
		}
		if err := writeTagList(oprot, s.Tags); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if s.Logs != nil {
		if err := oprot.WriteFieldBegin("logs", thrift.LIST, 11); err != nil {
			return err
		}
		if err := oprot.WriteListBegin(thrift.STRUCT, len(s.Logs)); err != nil {
			return err
		}
		for _, log := range s.Logs {
			if err := log.Write(oprot); err != nil {
				return err
			}
		}
		if err := oprot.WriteListEnd(); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func (p *Process) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("Process"); err != nil {
		return err
	}
	if err := writeStringField(oprot, "serviceName", 1, p.ServiceName); err != nil {
		return err
	}
	if p.Tags != nil {
		if err := oprot.WriteFieldBegin("tags", thrift.LIST, 2); err != nil {
			return err
		}
		if err := writeTagList(oprot, p.Tags); err != nil {
			return err
		}
		if err := oprot.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func (b *Batch) Write(oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin("Batch"); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin("process", thrift.STRUCT, 1); err != nil {
		return err
	}
	if err := b.Process.Write(oprot); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin("spans", thrift.LIST, 2); err != nil {
		return err
	}
	if err := oprot.WriteListBegin(thrift.STRUCT, len(b.Spans)); err != nil {
		return err
	}
	for _, span := range b.Spans {
		if err := span.Write(oprot); err != nil {
			return err
		}
	}
	if err := oprot.WriteListEnd(); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(); err != nil {
		return err
	}
	return oprot.WriteStructEnd()
}

func writeStringField(oprot thrift.TProtocol, name string, id int16, value string) error {
	if err := oprot.WriteFieldBegin(name, thrift.STRING, id); err != nil {
		return err
	}
	if err := oprot.WriteString(value); err != nil {
		return err
	}
	return oprot.WriteFieldEnd()
}

func writeI64Field(oprot thrift.TProtocol, name string, id int16, value int64) error {
	if err := oprot.WriteFieldBegin(name, thrift.I64, id); err != nil {
		return err
	}
	if err := oprot.WriteI64(value); err != nil {
		return err
	}
	return oprot.WriteFieldEnd()
}

func writeTagList(oprot thrift.TProtocol, tags []*Tag) error {
	if err := oprot.WriteListBegin(thrift.STRUCT, len(tags)); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := tag.Write(oprot); err != nil {
			return err
		}
	}
	return oprot.WriteListEnd()
}
