package wire

import (
	"github.com/apache/thrift/lib/go/thrift"
)

// Read methods mirror the Write side; they exist for interoperability tests
// and for consumers that receive batches rather than emit them. Unknown
// fields are skipped so newer schema revisions stay readable.

func readStruct(iprot thrift.TProtocol, field func(typeId thrift.TType, id int16) (bool, error)) error {
	if _, err := iprot.ReadStructBegin(); err != nil {
		return err
	}
	for {
		_, typeId, id, err := iprot.ReadFieldBegin()
		if err != nil {
			return err
		}
		if typeId == thrift.STOP {
			break
		}
		handled, err := field(typeId, id)
		if err != nil {
			return err
		}
		if !handled {
			if err := iprot.Skip(typeId); err != nil {
				return err
			}
		}
		if err := iprot.ReadFieldEnd(); err != nil {
			return err
		}
	}
	return iprot.ReadStructEnd()
}

func (t *Tag) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.STRING:
			v, err := iprot.ReadString()
			t.Key = v
			return true, err
		case id == 2 && typeId == thrift.I32:
			v, err := iprot.ReadI32()
			t.VType = TagType(v)
			return true, err
		case id == 3 && typeId == thrift.STRING:
			v, err := iprot.ReadString()
			t.VStr = &v
			return true, err
		case id == 4 && typeId == thrift.DOUBLE:
			v, err := iprot.ReadDouble()
			t.VDouble = &v
			return true, err
		case id == 5 && typeId == thrift.BOOL:
			v, err := iprot.ReadBool()
			t.VBool = &v
			return true, err
		case id == 6 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			t.VLong = &v
			return true, err
		case id == 7 && typeId == thrift.STRING:
			v, err := iprot.ReadBinary()
			t.VBinary = v
			return true, err
		}
		return false, nil
	})
}

func readTagList(iprot thrift.TProtocol) ([]*Tag, error) {
	_, size, err := iprot.ReadListBegin()
	if err != nil {
		return nil, err
	}
	tags := make([]*Tag, 0, size)
	for i := 0; i < size; i++ {
		tag := &Tag{}
		if err := tag.Read(iprot); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, iprot.ReadListEnd()
}

func (l *Log) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			l.Timestamp = v
			return true, err
		case id == 2 && typeId == thrift.LIST:
			fields, err := readTagList(iprot)
			l.Fields = fields
			return true, err
		}
		return false, nil
	})
}

func (r *SpanRef) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.I32:
			v, err := iprot.ReadI32()
			r.RefType = SpanRefType(v)
			return true, err
		case id == 2 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			r.TraceIdLow = v
			return true, err
		case id == 3 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			r.TraceIdHigh = v
			return true, err
		case id == 4 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			r.SpanId = v
			return true, err
		}
		return false, nil
	})
}

func (s *Span) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.TraceIdLow = v
			return true, err
		case id == 2 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.TraceIdHigh = v
			return true, err
		case id == 3 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.SpanId = v
			return true, err
		case id == 4 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.ParentSpanId = v
			return true, err
		case id == 5 && typeId == thrift.STRING:
			v, err := iprot.ReadString()
			s.OperationName = v
			return true, err
		case id == 6 && typeId == thrift.LIST:
			_, size, err := iprot.ReadListBegin()
			if err != nil {
				return true, err
			}
			refs := make([]*SpanRef, 0, size)
			for i := 0; i < size; i++ {
				ref := &SpanRef{}
				if err := ref.Read(iprot); err != nil {
					return true, err
				}
				refs = append(refs, ref)
			}
			s.References = refs
			return true, iprot.ReadListEnd()
		case id == 7 && typeId == thrift.I32:
			v, err := iprot.ReadI32()
			s.Flags = v
			return true, err
		case id == 8 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.StartTime = v
			return true, err
		case id == 9 && typeId == thrift.I64:
			v, err := iprot.ReadI64()
			s.Duration = v
			return true, err
		case id == 10 && typeId == thrift.LIST:
			tags, err := readTagList(iprot)
			s.Tags = tags
			return true, err
		case id == 11 && typeId == thrift.LIST:
			_, size, err := iprot.ReadListBegin()
			if err != nil {
				return true, err
			}
			logs := make([]*Log, 0, size)
			for i := 0; i < size; i++ {
				log := &Log{}
				if err := log.Read(iprot); err != nil {
					return true, err
				}
				logs = append(logs, log)
			}
			s.Logs = logs
			return true, iprot.ReadListEnd()
		}
		return false, nil
	})
}

func (p *Process) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.STRING:
			v, err := iprot.ReadString()
			p.ServiceName = v
			return true, err
		case id == 2 && typeId == thrift.LIST:
			tags, err := readTagList(iprot)
			p.Tags = tags
			return true, err
		}
		return false, nil
	})
}

func (b *Batch) Read(iprot thrift.TProtocol) error {
	return readStruct(iprot, func(typeId thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && typeId == thrift.STRUCT:
			process := &Process{}
			err := process.Read(iprot)
			b.Process = process
			return true, err
		case id == 2 && typeId == thrift.LIST:
			_, size, err := iprot.ReadListBegin()
			if err != nil {
				return true, err
			}
			spans := make([]*Span, 0, size)
			for i := 0; i < size; i++ {
				span := &Span{}
				if err := span.Read(iprot); err != nil {
					return true, err
				}
				spans = append(spans, span)
			}
			b.Spans = spans
			return true, iprot.ReadListEnd()
		}
		return false, nil
	})
}
