package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/packed.go/pkg/varstruct"
)

// Records are forwarded in protobuf wire format:
//
//	message Record {
//	  repeated Field fields = 1;
//	}
//	message Field {
//	  oneof value {
//	    sint64 int   = 1;
//	    uint64 uint  = 2;
//	    bytes  bytes = 3;
//	    double float = 4;
//	  }
//	}

const (
	recordFieldsNum = 1

	fieldIntNum   = 1
	fieldUintNum  = 2
	fieldBytesNum = 3
	fieldFloatNum = 4
)

var (
	// ErrUnsupportedValue indicates a record value which can't be forwarded.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrBadRecord indicates a forwarded record can't be decoded.
	ErrBadRecord = errors.New("bad record")
	// ErrUnsupportedScheme indicates the forward URL scheme is unknown.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	// ErrUnsupportedEncoding indicates the record encoding is unknown.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

func tag(num, wire int) uint64 {
	return uint64(num<<3 | wire)
}

// EncodeRecord encodes a Record as produced by varstruct.Unpack.
func EncodeRecord(rec varstruct.Record) ([]byte, error) {
	out, field := proto.NewBuffer(nil), proto.NewBuffer(nil)
	for n, v := range rec {
		field.Reset()
		switch val := v.(type) {
		case int64:
			field.EncodeVarint(tag(fieldIntNum, proto.WireVarint))
			field.EncodeZigzag64(uint64(val))
		case uint64:
			field.EncodeVarint(tag(fieldUintNum, proto.WireVarint))
			field.EncodeVarint(val)
		case []byte:
			field.EncodeVarint(tag(fieldBytesNum, proto.WireBytes))
			field.EncodeRawBytes(val)
		case float64:
			field.EncodeVarint(tag(fieldFloatNum, proto.WireFixed64))
			field.EncodeFixed64(math.Float64bits(val))
		default:
			return nil, fmt.Errorf("value %d: %w %T", n, ErrUnsupportedValue, v)
		}
		out.EncodeVarint(tag(recordFieldsNum, proto.WireBytes))
		out.EncodeRawBytes(field.Bytes())
	}
	return out.Bytes(), nil
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(b []byte) (varstruct.Record, error) {
	rec := varstruct.Record{}
	for len(b) > 0 {
		num, wire, _, data, rest, err := readField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		if num != recordFieldsNum || wire != proto.WireBytes {
			continue
		}
		v, err := decodeField(data)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(rec), err)
		}
		rec = append(rec, v)
	}
	return rec, nil
}

func decodeField(b []byte) (interface{}, error) {
	var v interface{}
	for len(b) > 0 {
		num, wire, x, data, rest, err := readField(b)
		if err != nil {
			return nil, err
		}
		b = rest
		switch {
		case num == fieldIntNum && wire == proto.WireVarint:
			v = int64(x>>1) ^ -int64(x&1)
		case num == fieldUintNum && wire == proto.WireVarint:
			v = x
		case num == fieldBytesNum && wire == proto.WireBytes:
			v = append([]byte{}, data...)
		case num == fieldFloatNum && wire == proto.WireFixed64:
			v = math.Float64frombits(x)
		}
	}
	if v == nil {
		return nil, ErrBadRecord
	}
	return v, nil
}

// readField reads one key/value pair. Varint and fixed64 values are
// returned in x, length-delimited values in data.
func readField(b []byte) (num, wire int, x uint64, data, rest []byte, err error) {
	key, n := proto.DecodeVarint(b)
	if n == 0 {
		err = ErrBadRecord
		return
	}
	b = b[n:]
	num, wire = int(key>>3), int(key&7)
	switch wire {
	case proto.WireVarint:
		if x, n = proto.DecodeVarint(b); n == 0 {
			err = ErrBadRecord
			return
		}
		rest = b[n:]
	case proto.WireFixed64:
		if len(b) < 8 {
			err = ErrBadRecord
			return
		}
		x, rest = binary.LittleEndian.Uint64(b), b[8:]
	case proto.WireBytes:
		l, n := proto.DecodeVarint(b)
		if n == 0 || uint64(len(b)-n) < l {
			err = ErrBadRecord
			return
		}
		data, rest = b[n:n+int(l)], b[n+int(l):]
	default:
		err = ErrBadRecord
	}
	return
}
