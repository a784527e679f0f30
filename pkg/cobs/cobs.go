// Package cobs implements Consistent Overhead Byte Stuffing.
//
// COBS removes every 0x00 byte from arbitrary data so 0x00 can delimit
// packets on a serial link. Encoded data costs at most one extra byte per
// 254 bytes of input plus one overhead byte.
package cobs

import (
	"bytes"
	"errors"
)

// Delimiter is the byte value which never appears in encoded data.
const Delimiter byte = 0x00

// maxCode is the code byte closing a block of 254 non-zero bytes
// without an implicit zero.
const maxCode byte = 0xff

var (
	// ErrMalformed indicates the code byte structure is inconsistent.
	ErrMalformed = errors.New("malformed cobs data")
)

// MaxEncodedLen returns the maximum size of encoded data for n bytes of input.
func MaxEncodedLen(n int) int {
	return n + n/254 + 1
}

// Encode encodes payload. The result never contains Delimiter.
func Encode(payload []byte) []byte {
	out := make([]byte, MaxEncodedLen(len(payload)))
	codeAt, w, code := 0, 1, byte(1)
	for _, b := range payload {
		if b == Delimiter {
			out[codeAt], code = code, 1
			codeAt, w = w, w+1
			continue
		}
		out[w] = b
		w++
		if code++; code == maxCode {
			out[codeAt], code = code, 1
			codeAt, w = w, w+1
		}
	}
	out[codeAt] = code
	return out[:w]
}

// Decode reverses Encode.
// Empty input, any Delimiter byte or a code byte pointing beyond the end
// of encoded fails with ErrMalformed.
func Decode(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 || bytes.IndexByte(encoded, Delimiter) >= 0 {
		return nil, ErrMalformed
	}
	out := make([]byte, 0, len(encoded))
	for r := 0; r < len(encoded); {
		code := encoded[r]
		if r+int(code) > len(encoded) {
			return nil, ErrMalformed
		}
		out = append(out, encoded[r+1:r+int(code)]...)
		r += int(code)
		if code != maxCode && r < len(encoded) {
			out = append(out, Delimiter)
		}
	}
	return out, nil
}
