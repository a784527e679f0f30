package bridge

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/robotalks/packed.go/pkg/varstruct"
)

// Encoding converts a Record into a forwarded packet and back.
type Encoding interface {
	Name() string
	Encode(varstruct.Record) ([]byte, error)
	Decode([]byte) (varstruct.Record, error)
}

// Names of the supported encodings.
const (
	EncodingProto   = "proto"
	EncodingMsgpack = "msgpack"
	EncodingCBOR    = "cbor"
)

type protoEncoding struct{}

func (protoEncoding) Name() string                                { return EncodingProto }
func (protoEncoding) Encode(rec varstruct.Record) ([]byte, error) { return EncodeRecord(rec) }
func (protoEncoding) Decode(b []byte) (varstruct.Record, error)   { return DecodeRecord(b) }

// msgpackEncoding writes a record as an array. Integers are always
// written in full width so signedness survives decoding.
type msgpackEncoding struct{}

func (msgpackEncoding) Name() string { return EncodingMsgpack }

func (msgpackEncoding) Encode(rec varstruct.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(rec)); err != nil {
		return nil, err
	}
	for n, v := range rec {
		var err error
		switch val := v.(type) {
		case int64:
			err = enc.EncodeInt64(val)
		case uint64:
			err = enc.EncodeUint64(val)
		case float64:
			err = enc.EncodeFloat64(val)
		case []byte:
			err = enc.EncodeBytes(val)
		default:
			err = fmt.Errorf("%w %T", ErrUnsupportedValue, v)
		}
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", n, err)
		}
	}
	return buf.Bytes(), nil
}

func (msgpackEncoding) Decode(b []byte) (varstruct.Record, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	l, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if l < 0 {
		return nil, ErrBadRecord
	}
	rec := make(varstruct.Record, 0, l)
	for n := 0; n < l; n++ {
		v, err := dec.DecodeInterface()
		if err != nil {
			return nil, fmt.Errorf("value %d: %w: %v", n, ErrBadRecord, err)
		}
		switch val := v.(type) {
		case int64, uint64, float64:
			rec = append(rec, val)
		case []byte:
			rec = append(rec, append([]byte{}, val...))
		case nil:
			rec = append(rec, []byte{})
		default:
			return nil, fmt.Errorf("value %d: %w %T", n, ErrBadRecord, v)
		}
	}
	return rec, nil
}

// cborField mirrors the protobuf Field message.
type cborField struct {
	Int   *int64   `cbor:"1,keyasint,omitempty"`
	Uint  *uint64  `cbor:"2,keyasint,omitempty"`
	Bytes *[]byte  `cbor:"3,keyasint,omitempty"`
	Float *float64 `cbor:"4,keyasint,omitempty"`
}

type cborEncoding struct{}

func (cborEncoding) Name() string { return EncodingCBOR }

func (cborEncoding) Encode(rec varstruct.Record) ([]byte, error) {
	fields := make([]cborField, len(rec))
	for n, v := range rec {
		switch val := v.(type) {
		case int64:
			fields[n].Int = &val
		case uint64:
			fields[n].Uint = &val
		case float64:
			fields[n].Float = &val
		case []byte:
			fields[n].Bytes = &val
		default:
			return nil, fmt.Errorf("value %d: %w %T", n, ErrUnsupportedValue, v)
		}
	}
	return cbor.Marshal(fields)
}

func (cborEncoding) Decode(b []byte) (varstruct.Record, error) {
	var fields []cborField
	if err := cbor.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	rec := make(varstruct.Record, 0, len(fields))
	for n, f := range fields {
		switch {
		case f.Int != nil:
			rec = append(rec, *f.Int)
		case f.Uint != nil:
			rec = append(rec, *f.Uint)
		case f.Float != nil:
			rec = append(rec, *f.Float)
		case f.Bytes != nil:
			rec = append(rec, append([]byte{}, *f.Bytes...))
		default:
			return nil, fmt.Errorf("value %d: %w", n, ErrBadRecord)
		}
	}
	return rec, nil
}

var encodings = map[string]Encoding{
	EncodingProto:   protoEncoding{},
	EncodingMsgpack: msgpackEncoding{},
	EncodingCBOR:    cborEncoding{},
}

// EncodingByName finds a supported Encoding, empty name is proto.
func EncodingByName(name string) (Encoding, error) {
	if name == "" {
		name = EncodingProto
	}
	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, name)
}
