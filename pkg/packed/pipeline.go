package packed

import (
	"github.com/robotalks/packed.go/pkg/cobs"
	"github.com/robotalks/packed.go/pkg/frame"
	"github.com/robotalks/packed.go/pkg/varstruct"
)

// Result is the outcome of one frame.
type Result struct {
	Record varstruct.Record
	Err    error
}

// Pipeline turns raw bytes into records. It is not safe for concurrent use.
type Pipeline struct {
	Spec varstruct.FieldSpec
	// Strict rejects payloads with bytes left after the last field.
	Strict bool

	assembler frame.Assembler
}

// NewPipeline creates a Pipeline for records of spec.
func NewPipeline(spec varstruct.FieldSpec) *Pipeline {
	return &Pipeline{Spec: spec}
}

// WithStrict sets Strict.
func (p *Pipeline) WithStrict(strict bool) *Pipeline {
	p.Strict = strict
	return p
}

// WithMaxFrameSize limits the size of an encoded frame, 0 is unbounded.
func (p *Pipeline) WithMaxFrameSize(size int) *Pipeline {
	p.assembler.MaxFrameSize = size
	return p
}

// Process consumes chunk and returns a Result for each completed frame in
// arrival order. A failed frame never affects later frames.
func (p *Pipeline) Process(chunk []byte) []Result {
	var results []Result
	p.assembler.Scan(chunk, func(encoded []byte, err error) {
		if err != nil {
			results = append(results, Result{Err: &PipelineError{Stage: StageFraming, Err: err}})
			return
		}
		results = append(results, p.Decode(encoded))
	})
	return results
}

// Decode decodes a single encoded frame without delimiter.
func (p *Pipeline) Decode(encoded []byte) (r Result) {
	// an empty frame carries an empty payload, it's up to unpacking
	// whether that's acceptable.
	var payload []byte
	if len(encoded) > 0 {
		var err error
		if payload, err = cobs.Decode(encoded); err != nil {
			r.Err = &PipelineError{Stage: StageDecode, Err: err}
			return
		}
	}
	var err error
	if p.Strict {
		r.Record, err = varstruct.UnpackStrict(payload, p.Spec)
	} else {
		r.Record, err = varstruct.Unpack(payload, p.Spec)
	}
	if err != nil {
		r.Record, r.Err = nil, &PipelineError{Stage: StageUnpack, Err: err}
	}
	return
}

// Frame packs rec and returns the bytes to send, delimiter included.
func (p *Pipeline) Frame(rec varstruct.Record) ([]byte, error) {
	payload, err := varstruct.Pack(rec, p.Spec)
	if err != nil {
		return nil, err
	}
	return append(cobs.Encode(payload), frame.Delimiter), nil
}

// Reset drops any partially received frame.
func (p *Pipeline) Reset() {
	p.assembler.Reset()
}

// Buffered returns the number of bytes of the partially received frame.
func (p *Pipeline) Buffered() int {
	return p.assembler.Buffered()
}
