package packed

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen indicates the Link has no ReadWriter.
	ErrNotOpen = errors.New("link not open")
	// ErrNoPipeline indicates the Link was not created by NewLink and has no Pipeline.
	ErrNoPipeline = errors.New("link has no pipeline")
)

// Stage identifies the pipeline stage an error originated in.
type Stage int

// Pipeline stages.
const (
	// StageFraming is frame extraction, only fails on oversized frames.
	StageFraming Stage = iota
	// StageDecode is COBS decoding.
	StageDecode
	// StageUnpack is field unpacking.
	StageUnpack
)

func (s Stage) String() string {
	switch s {
	case StageFraming:
		return "framing"
	case StageDecode:
		return "decode"
	case StageUnpack:
		return "unpack"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// PipelineError wraps the error of a failed frame with its stage.
type PipelineError struct {
	Stage Stage
	Err   error
}

// Error implements error.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the stage error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}
