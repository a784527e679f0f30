// Package varstruct packs and unpacks flat records of fixed-width numbers
// and length-prefixed byte strings.
//
// The layout of a record is described by a FieldSpec, either built from
// Field constructors or parsed from a netstruct style format string such
// as "b$b$" (two byte strings, each prefixed by a one byte length).
package varstruct

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a field.
type Kind int

// Field kinds.
const (
	// KindInt is a fixed-width two's-complement integer.
	KindInt Kind = iota
	// KindBytes is a byte string prefixed by an unsigned length.
	KindBytes
	// KindFixedBytes is a byte string of fixed length.
	KindFixedBytes
	// KindPad is skipped on unpack and zero-filled on pack. It has no value.
	KindPad
	// KindFloat is an IEEE 754 float.
	KindFloat
)

// Field describes one element of a record layout.
type Field struct {
	Kind Kind
	// Width is the size in bytes of the integer or float, the size of the
	// length prefix for KindBytes, or the byte count for KindFixedBytes
	// and KindPad.
	Width  int
	Signed bool
	// Order is the byte order of numbers in this field.
	// nil means big-endian.
	Order binary.ByteOrder
}

// FieldSpec is the ordered layout of a record.
type FieldSpec []Field

// Record is an ordered list of field values. Unpack produces int64 for
// signed integers, uint64 for unsigned integers, float64 for floats
// and []byte for byte strings. Pad fields have no value.
type Record []interface{}

// String prints values separated by space, byte strings are quoted.
func (r Record) String() string {
	items := make([]string, len(r))
	for n, v := range r {
		switch val := v.(type) {
		case []byte:
			items[n] = strconv.Quote(string(val))
		case float64:
			items[n] = strconv.FormatFloat(val, 'g', -1, 64)
		default:
			items[n] = fmt.Sprint(val)
		}
	}
	return strings.Join(items, " ")
}

// VarBytes is a byte string with a one byte length prefix.
var VarBytes = Field{Kind: KindBytes, Width: 1}

// FixedInt creates an integer field of width bytes.
func FixedInt(width int, signed bool) Field {
	return Field{Kind: KindInt, Width: width, Signed: signed}
}

// VarBytesN creates a byte string field with a length prefix of width bytes.
func VarBytesN(width int) Field {
	return Field{Kind: KindBytes, Width: width}
}

// FixedBytes creates a byte string field of exactly n bytes.
func FixedBytes(n int) Field {
	return Field{Kind: KindFixedBytes, Width: n}
}

// Pad creates n bytes of padding.
func Pad(n int) Field {
	return Field{Kind: KindPad, Width: n}
}

// Float creates a float field, width is 4 or 8.
func Float(width int) Field {
	return Field{Kind: KindFloat, Width: width}
}

// LittleEndian returns a copy of the field using little-endian numbers.
func (f Field) LittleEndian() Field {
	f.Order = binary.LittleEndian
	return f
}

func (f Field) order() binary.ByteOrder {
	if f.Order == nil {
		return binary.BigEndian
	}
	return f.Order
}

func (f Field) hasValue() bool {
	return f.Kind != KindPad
}

// Validate checks the field is well-formed.
func (f Field) Validate() error {
	valid := false
	switch f.Kind {
	case KindInt, KindBytes:
		valid = f.Width == 1 || f.Width == 2 || f.Width == 4 || f.Width == 8
	case KindFloat:
		valid = f.Width == 4 || f.Width == 8
	case KindFixedBytes, KindPad:
		valid = f.Width >= 0
	}
	if !valid {
		return fmt.Errorf("%w: kind %d width %d", ErrInvalidField, f.Kind, f.Width)
	}
	return nil
}

// String returns the format code of the field.
func (f Field) String() string {
	switch f.Kind {
	case KindInt:
		return intCode(f.Width, f.Signed)
	case KindBytes:
		return intCode(f.Width, f.Width == 1) + "$"
	case KindFixedBytes:
		return strconv.Itoa(f.Width) + "s"
	case KindPad:
		return strconv.Itoa(f.Width) + "x"
	case KindFloat:
		if f.Width == 4 {
			return "f"
		}
		return "d"
	}
	return "?"
}

// Validate checks all fields.
func (s FieldSpec) Validate() error {
	for n, f := range s {
		if err := f.Validate(); err != nil {
			return &FieldError{Index: n, Err: err}
		}
	}
	return nil
}

// NumValues returns the number of values in a Record of this layout.
func (s FieldSpec) NumValues() int {
	n := 0
	for _, f := range s {
		if f.hasValue() {
			n++
		}
	}
	return n
}

// MinSize returns the smallest payload size this layout can unpack.
func (s FieldSpec) MinSize() int {
	n := 0
	for _, f := range s {
		n += f.Width
	}
	return n
}

// String formats the layout as a format string.
func (s FieldSpec) String() string {
	var sb strings.Builder
	for n, f := range s {
		if n == 0 && f.Order == binary.LittleEndian {
			sb.WriteByte('<')
		}
		sb.WriteString(f.String())
	}
	return sb.String()
}

func intCode(width int, signed bool) string {
	var c byte
	switch width {
	case 1:
		c = 'b'
	case 2:
		c = 'h'
	case 4:
		c = 'i'
	case 8:
		c = 'q'
	default:
		return "?"
	}
	if !signed {
		c -= 'a' - 'A'
	}
	return string(c)
}
