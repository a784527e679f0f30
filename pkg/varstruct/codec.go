package varstruct

import (
	"encoding/binary"
	"math"
	"reflect"
)

// Unpack decodes payload into a Record following spec.
// Bytes left after the last field are ignored.
func Unpack(payload []byte, spec FieldSpec) (Record, error) {
	rec, _, err := unpack(payload, spec)
	return rec, err
}

// UnpackStrict is Unpack but fails with ErrTrailingData when bytes are
// left after the last field.
func UnpackStrict(payload []byte, spec FieldSpec) (Record, error) {
	rec, rest, err := unpack(payload, spec)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, ErrTrailingData
	}
	return rec, nil
}

func unpack(p []byte, spec FieldSpec) (Record, []byte, error) {
	rec := make(Record, 0, spec.NumValues())
	for n, f := range spec {
		if err := f.Validate(); err != nil {
			return nil, nil, &FieldError{Index: n, Err: err}
		}
		if len(p) < f.Width {
			return nil, nil, &FieldError{Index: n, Err: ErrTruncated}
		}
		head := p[:f.Width]
		p = p[f.Width:]
		switch f.Kind {
		case KindInt:
			v := readUint(head, f.order())
			if f.Signed {
				rec = append(rec, signExtend(v, f.Width))
			} else {
				rec = append(rec, v)
			}
		case KindFloat:
			v := readUint(head, f.order())
			if f.Width == 4 {
				rec = append(rec, float64(math.Float32frombits(uint32(v))))
			} else {
				rec = append(rec, math.Float64frombits(v))
			}
		case KindFixedBytes:
			rec = append(rec, append([]byte{}, head...))
		case KindBytes:
			l := readUint(head, f.order())
			if uint64(len(p)) < l {
				return nil, nil, &FieldError{Index: n, Err: ErrTruncated}
			}
			rec = append(rec, append([]byte{}, p[:l]...))
			p = p[l:]
		}
	}
	return rec, p, nil
}

// Pack encodes rec following spec. The values are matched in order with
// the non-pad fields of spec.
// Integer fields accept any Go integer type, byte string fields accept
// []byte and string, float fields accept float32 and float64.
func Pack(rec Record, spec FieldSpec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(rec) != spec.NumValues() {
		return nil, ErrFieldCount
	}
	out := make([]byte, 0, spec.MinSize())
	next := 0
	for n, f := range spec {
		if !f.hasValue() {
			out = append(out, make([]byte, f.Width)...)
			continue
		}
		var err error
		if out, err = packField(out, f, rec[next]); err != nil {
			return nil, &FieldError{Index: n, Err: err}
		}
		next++
	}
	return out, nil
}

func packField(out []byte, f Field, val interface{}) ([]byte, error) {
	switch f.Kind {
	case KindInt:
		v, err := intBits(val, f.Width, f.Signed)
		if err != nil {
			return nil, err
		}
		return appendUint(out, v, f.Width, f.order()), nil
	case KindFloat:
		var v float64
		switch fv := val.(type) {
		case float32:
			v = float64(fv)
		case float64:
			v = fv
		default:
			return nil, ErrFieldType
		}
		if f.Width == 4 {
			return appendUint(out, uint64(math.Float32bits(float32(v))), 4, f.order()), nil
		}
		return appendUint(out, math.Float64bits(v), 8, f.order()), nil
	}

	var b []byte
	switch bv := val.(type) {
	case []byte:
		b = bv
	case string:
		b = []byte(bv)
	default:
		return nil, ErrFieldType
	}
	if f.Kind == KindFixedBytes {
		if len(b) > f.Width {
			return nil, ErrFieldTooLong
		}
		out = append(out, b...)
		return append(out, make([]byte, f.Width-len(b))...), nil
	}
	if uint64(len(b)) > maxUint(f.Width) {
		return nil, ErrFieldTooLong
	}
	out = appendUint(out, uint64(len(b)), f.Width, f.order())
	return append(out, b...), nil
}

// intBits range checks an integer value and returns its two's-complement bits.
func intBits(val interface{}, width int, signed bool) (uint64, error) {
	rv := reflect.ValueOf(val)
	var (
		i   int64
		u   uint64
		neg bool
	)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
		neg, u = i < 0, uint64(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = rv.Uint()
	default:
		return 0, ErrFieldType
	}
	bits := uint(width * 8)
	if !signed {
		if neg || u > maxUint(width) {
			return 0, ErrIntRange
		}
		return u, nil
	}
	if neg {
		if bits < 64 && i < -(int64(1)<<(bits-1)) {
			return 0, ErrIntRange
		}
	} else if u > uint64(1)<<(bits-1)-1 {
		return 0, ErrIntRange
	}
	return u & maxUint(width), nil
}

func maxUint(width int) uint64 {
	if width >= 8 {
		return math.MaxUint64
	}
	return uint64(1)<<(uint(width)*8) - 1
}

func signExtend(v uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(v<<shift) >> shift
}

func readUint(b []byte, order binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	return 0
}

func appendUint(out []byte, v uint64, width int, order binary.ByteOrder) []byte {
	var buf [8]byte
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		order.PutUint16(buf[:], uint16(v))
	case 4:
		order.PutUint32(buf[:], uint32(v))
	case 8:
		order.PutUint64(buf[:], v)
	}
	return append(out, buf[:width]...)
}
