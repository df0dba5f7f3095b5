package api

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Message is implemented by every log.v1 message.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(b []byte) error
}

// Record is the wire form of commitlog.Record.
type Record struct {
	Value  []byte
	Offset uint64
}

// FromRecord converts a log record to its wire form.
func FromRecord(r commitlog.Record) *Record {
	return &Record{Value: r.Value, Offset: r.Offset}
}

// ToRecord converts the wire form back to a log record. The wire format
// cannot tell an empty value from an absent one, so Value is never nil.
func (r *Record) ToRecord() commitlog.Record {
	if r == nil {
		return commitlog.Record{Value: []byte{}}
	}
	value := r.Value
	if value == nil {
		value = []byte{}
	}
	return commitlog.Record{Value: value, Offset: r.Offset}
}

func (r *Record) Marshal() ([]byte, error) {
	return r.appendTo(nil), nil
}

func (r *Record) appendTo(b []byte) []byte {
	if len(r.Value) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Value)
	}
	if r.Offset != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, r.Offset)
	}
	return b
}

func (r *Record) Unmarshal(b []byte) error {
	*r = Record{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			r.Value = append([]byte(nil), v...)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			r.Offset = v
			return n, nil
		}
		return skipField(num, typ, b)
	})
}

// ProduceRequest asks the server to append Record.
type ProduceRequest struct {
	Record *Record
}

func (m *ProduceRequest) Marshal() ([]byte, error) {
	return appendRecordField(nil, m.Record), nil
}

func (m *ProduceRequest) Unmarshal(b []byte) error {
	*m = ProduceRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			rec, n, err := consumeRecord(b)
			m.Record = rec
			return n, err
		}
		return skipField(num, typ, b)
	})
}

// ProduceResponse carries the offset assigned to a produced record.
type ProduceResponse struct {
	Offset uint64
}

func (m *ProduceResponse) Marshal() ([]byte, error) {
	return appendOffsetField(nil, m.Offset), nil
}

func (m *ProduceResponse) Unmarshal(b []byte) error {
	*m = ProduceResponse{}
	return walkFields(b, offsetField(&m.Offset))
}

// ConsumeRequest asks for the record at Offset.
type ConsumeRequest struct {
	Offset uint64
}

func (m *ConsumeRequest) Marshal() ([]byte, error) {
	return appendOffsetField(nil, m.Offset), nil
}

func (m *ConsumeRequest) Unmarshal(b []byte) error {
	*m = ConsumeRequest{}
	return walkFields(b, offsetField(&m.Offset))
}

// ConsumeResponse carries the requested record.
type ConsumeResponse struct {
	Record *Record
}

func (m *ConsumeResponse) Marshal() ([]byte, error) {
	return appendRecordField(nil, m.Record), nil
}

func (m *ConsumeResponse) Unmarshal(b []byte) error {
	*m = ConsumeResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			rec, n, err := consumeRecord(b)
			m.Record = rec
			return n, err
		}
		return skipField(num, typ, b)
	})
}

// fieldFunc consumes the value of one field and reports how many bytes it used.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("api: bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("api: field %d: %w", num, err)
		}
		b = b[n:]
	}
	return nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func offsetField(dst *uint64) fieldFunc {
	return func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			*dst = v
			return n, nil
		}
		return skipField(num, typ, b)
	}
}

func appendOffsetField(b []byte, offset uint64) []byte {
	if offset == 0 {
		return b
	}
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	return protowire.AppendVarint(b, offset)
}

func appendRecordField(b []byte, r *Record) []byte {
	if r == nil {
		return b
	}
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendBytes(b, r.appendTo(nil))
}

func consumeRecord(b []byte) (*Record, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	rec := &Record{}
	if err := rec.Unmarshal(v); err != nil {
		return nil, 0, err
	}
	return rec, n, nil
}

var (
	_ Message = (*Record)(nil)
	_ Message = (*ProduceRequest)(nil)
	_ Message = (*ProduceResponse)(nil)
	_ Message = (*ConsumeRequest)(nil)
	_ Message = (*ConsumeResponse)(nil)
)
