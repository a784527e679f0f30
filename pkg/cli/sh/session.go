package sh

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/packed.go/pkg/cobs"
	"github.com/robotalks/packed.go/pkg/packed"
	"github.com/robotalks/packed.go/pkg/varstruct"
)

// Session is the codec state behind the shell commands.
type Session struct {
	Format   string
	Pipeline *packed.Pipeline
}

// NewSession creates a Session decoding records of format.
func NewSession(format string) (*Session, error) {
	s := &Session{Pipeline: packed.NewPipeline(nil)}
	if err := s.SetFormat(format); err != nil {
		return nil, err
	}
	return s, nil
}

// SetFormat replaces the record format and drops buffered bytes.
func (s *Session) SetFormat(format string) error {
	spec, err := varstruct.ParseFormat(format)
	if err != nil {
		return err
	}
	s.Format, s.Pipeline.Spec = format, spec
	s.Pipeline.Reset()
	return nil
}

// Encode stuffs a payload and returns the frame including the delimiter.
func (s *Session) Encode(args ...string) (string, error) {
	payload, err := ParseHex(args...)
	if err != nil {
		return "", err
	}
	return FormatHex(append(cobs.Encode(payload), cobs.Delimiter)), nil
}

// Decode decodes a single frame, the trailing delimiter is optional.
func (s *Session) Decode(args ...string) (string, error) {
	encoded, err := ParseHex(args...)
	if err != nil {
		return "", err
	}
	if n := len(encoded); n > 0 && encoded[n-1] == cobs.Delimiter {
		encoded = encoded[:n-1]
	}
	r := s.Pipeline.Decode(encoded)
	if r.Err != nil {
		return "", r.Err
	}
	return r.Record.String(), nil
}

// Pack converts values according to the format and frames the record.
func (s *Session) Pack(args ...string) (string, error) {
	rec, err := ParseValues(s.Pipeline.Spec, args...)
	if err != nil {
		return "", err
	}
	b, err := s.Pipeline.Frame(rec)
	if err != nil {
		return "", err
	}
	return FormatHex(b), nil
}

// Feed pushes raw bytes into the pipeline and formats every result.
func (s *Session) Feed(args ...string) ([]string, error) {
	chunk, err := ParseHex(args...)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, r := range s.Pipeline.Process(chunk) {
		if r.Err != nil {
			lines = append(lines, "error: "+r.Err.Error())
			continue
		}
		lines = append(lines, r.Record.String())
	}
	return lines, nil
}

// ParseHex parses hex bytes, separators between bytes are ignored.
func ParseHex(args ...string) ([]byte, error) {
	str := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', ',', '-':
			return -1
		}
		return r
	}, strings.Join(args, ""))
	return hex.DecodeString(str)
}

// FormatHex prints bytes as space separated hex.
func FormatHex(b []byte) string {
	return fmt.Sprintf("% x", b)
}

// ParseValues converts text values into a Record matching spec.
func ParseValues(spec varstruct.FieldSpec, args ...string) (varstruct.Record, error) {
	if len(args) != spec.NumValues() {
		return nil, fmt.Errorf("%w: expect %d values, got %d",
			varstruct.ErrFieldCount, spec.NumValues(), len(args))
	}
	rec := make(varstruct.Record, 0, len(args))
	for n, f := range spec {
		if f.Kind == varstruct.KindPad {
			continue
		}
		var (
			v   interface{}
			err error
		)
		arg := args[len(rec)]
		switch f.Kind {
		case varstruct.KindInt:
			if f.Signed {
				v, err = strconv.ParseInt(arg, 0, 64)
			} else {
				v, err = strconv.ParseUint(arg, 0, 64)
			}
		case varstruct.KindFloat:
			v, err = strconv.ParseFloat(arg, 64)
		default:
			v = []byte(arg)
		}
		if err != nil {
			return nil, &varstruct.FieldError{Index: n, Err: err}
		}
		rec = append(rec, v)
	}
	return rec, nil
}
