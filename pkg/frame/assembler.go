// Package frame recovers delimiter-terminated frames from a byte stream.
package frame

import (
	"bytes"
	"errors"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = 0x00

var (
	// ErrFrameTooLarge is reported by Scan for a frame exceeding MaxFrameSize.
	// The frame is discarded and the stream resumes after its delimiter.
	ErrFrameTooLarge = errors.New("frame too large")
)

// FrameFunc is called by Scan for every frame in arrival order.
// err is non-nil only for discarded frames, in which case frame is nil.
// frame is only valid during the call.
type FrameFunc func(frame []byte, err error)

// Assembler accumulates chunks and splits them into frames.
// It is not safe for concurrent use; use one Assembler per stream.
type Assembler struct {
	// MaxFrameSize limits the size of a frame excluding the delimiter.
	// Zero means unbounded.
	MaxFrameSize int

	buf      []byte
	skipping bool
	dropped  int
}

// NewAssembler creates an Assembler without a frame size limit.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed appends chunk and returns all completed frames, delimiters stripped.
// Empty frames are returned as zero-length slices. Frames discarded by
// MaxFrameSize are not returned.
func (a *Assembler) Feed(chunk []byte) [][]byte {
	var frames [][]byte
	a.Scan(chunk, func(frame []byte, err error) {
		if err == nil {
			frames = append(frames, append([]byte{}, frame...))
		}
	})
	return frames
}

// Scan appends chunk and calls fn for each completed frame.
func (a *Assembler) Scan(chunk []byte, fn FrameFunc) {
	for len(chunk) > 0 {
		pos := bytes.IndexByte(chunk, Delimiter)
		if pos < 0 {
			a.keep(chunk)
			return
		}
		a.keep(chunk[:pos])
		chunk = chunk[pos+1:]
		if a.skipping {
			a.skipping = false
			fn(nil, ErrFrameTooLarge)
			continue
		}
		fn(a.buf, nil)
		a.buf = a.buf[:0]
	}
}

// Reset discards all buffered bytes.
func (a *Assembler) Reset() {
	a.buf, a.skipping = nil, false
}

// Buffered returns the number of bytes waiting for a delimiter.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Dropped returns the number of frames discarded so far.
func (a *Assembler) Dropped() int {
	return a.dropped
}

func (a *Assembler) keep(p []byte) {
	if a.skipping {
		return
	}
	if a.MaxFrameSize > 0 && len(a.buf)+len(p) > a.MaxFrameSize {
		a.buf, a.skipping = a.buf[:0], true
		a.dropped++
		return
	}
	a.buf = append(a.buf, p...)
}
