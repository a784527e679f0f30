package varstruct

import (
	"encoding/binary"
	"fmt"
)

// MaxCount is the largest repeat count or byte string length in a format.
const MaxCount = 0xffff

// ParseFormat parses a netstruct style format string.
//
// The first character may select the byte order: '!', '>', '=' and '@' for
// big-endian (the default), '<' for little-endian. Codes are:
//
//	x     pad byte
//	b B   int8 uint8
//	h H   int16 uint16
//	i I   int32 uint32 (also l L)
//	q Q   int64 uint64
//	f d   float32 float64
//	s     fixed length byte string, the count is the length
//	$     after an integer code, a byte string prefixed by that integer
//
// A decimal count before a code repeats it, e.g. "2H" is "HH" and "3x" is
// three pad bytes. Counts are limited to MaxCount. Whitespace is ignored.
func ParseFormat(format string) (FieldSpec, error) {
	var order binary.ByteOrder
	pos := 0
	if len(format) > 0 {
		switch format[0] {
		case '!', '>', '=', '@':
			pos = 1
		case '<':
			order, pos = binary.LittleEndian, 1
		}
	}

	var spec FieldSpec
	for pos < len(format) {
		c := format[pos]
		if c == ' ' || c == '\t' || c == '\n' {
			pos++
			continue
		}
		count, hasCount := 0, false
		for pos < len(format) && format[pos] >= '0' && format[pos] <= '9' {
			count = count*10 + int(format[pos]-'0')
			hasCount = true
			pos++
			if count > MaxCount {
				return nil, fmt.Errorf("%w %q: count exceeds %d at %d", ErrInvalidFormat, format, MaxCount, pos-1)
			}
		}
		if !hasCount {
			count = 1
		}
		if pos >= len(format) {
			return nil, fmt.Errorf("%w %q: count without code", ErrInvalidFormat, format)
		}
		c = format[pos]
		pos++

		var f Field
		switch c {
		case 'x':
			spec = append(spec, Pad(count))
			continue
		case 's':
			spec = append(spec, FixedBytes(count))
			continue
		case 'b', 'B':
			f = FixedInt(1, c == 'b')
		case 'h', 'H':
			f = FixedInt(2, c == 'h')
		case 'i', 'I', 'l', 'L':
			f = FixedInt(4, c == 'i' || c == 'l')
		case 'q', 'Q':
			f = FixedInt(8, c == 'q')
		case 'f':
			f = Float(4)
		case 'd':
			f = Float(8)
		default:
			return nil, fmt.Errorf("%w %q: unknown code %q at %d", ErrInvalidFormat, format, c, pos-1)
		}
		if pos < len(format) && format[pos] == '$' {
			if f.Kind != KindInt {
				return nil, fmt.Errorf("%w %q: '$' after non-integer code at %d", ErrInvalidFormat, format, pos)
			}
			f = VarBytesN(f.Width)
			pos++
		}
		f.Order = order
		for i := 0; i < count; i++ {
			spec = append(spec, f)
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidFormat, format, err)
	}
	return spec, nil
}

// MustParseFormat is ParseFormat and panics on error.
func MustParseFormat(format string) FieldSpec {
	spec, err := ParseFormat(format)
	if err != nil {
		panic(err)
	}
	return spec
}
