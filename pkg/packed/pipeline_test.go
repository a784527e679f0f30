package packed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/packed.go/pkg/cobs"
	"github.com/robotalks/packed.go/pkg/frame"
	"github.com/robotalks/packed.go/pkg/varstruct"
)

var stringPair = varstruct.MustParseFormat("b$b$")

// wire of the record ("hi", "bye").
var hiBye = []byte{8, 2, 'h', 'i', 3, 'b', 'y', 'e', 0}

func requireStageError(t *testing.T, r Result, stage Stage, cause error) {
	require.Nil(t, r.Record)
	var pe *PipelineError
	require.ErrorAs(t, r.Err, &pe)
	require.Equal(t, stage, pe.Stage)
	require.ErrorIs(t, r.Err, cause)
}

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(stringPair)
	results := p.Process(hiBye)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Equal(t, varstruct.Record{[]byte("hi"), []byte("bye")}, results[0].Record)
	require.Equal(t, 0, p.Buffered())
}

func TestPipelineDelimiterOnly(t *testing.T) {
	p := NewPipeline(stringPair)
	results := p.Process([]byte{0})
	require.Len(t, results, 1)
	requireStageError(t, results[0], StageUnpack, varstruct.ErrTruncated)

	results = p.Process(hiBye)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
}

func TestPipelineResync(t *testing.T) {
	p := NewPipeline(stringPair)
	stream := append([]byte{5, 1, 0}, hiBye...)
	results := p.Process(stream)
	require.Len(t, results, 2)
	requireStageError(t, results[0], StageDecode, cobs.ErrMalformed)
	require.NoError(t, results[1].Err)
	require.Equal(t, varstruct.Record{[]byte("hi"), []byte("bye")}, results[1].Record)
}

func TestPipelineChunks(t *testing.T) {
	stream := bytes.Repeat(hiBye, 3)
	p := NewPipeline(stringPair)
	var results []Result
	for _, b := range stream {
		results = append(results, p.Process([]byte{b})...)
	}
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, varstruct.Record{[]byte("hi"), []byte("bye")}, r.Record)
	}

	results = p.Process(stream[:4])
	require.Empty(t, results)
	require.Equal(t, 4, p.Buffered())
	p.Reset()
	require.Equal(t, 0, p.Buffered())
	require.Len(t, p.Process(hiBye), 1)
}

func TestPipelineStrict(t *testing.T) {
	payload := []byte{1, 'a', 1, 'b', 'c'}
	wire := append(cobs.Encode(payload), 0)

	results := NewPipeline(stringPair).Process(wire)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	results = NewPipeline(stringPair).WithStrict(true).Process(wire)
	require.Len(t, results, 1)
	requireStageError(t, results[0], StageUnpack, varstruct.ErrTrailingData)
}

func TestPipelineMaxFrameSize(t *testing.T) {
	p := NewPipeline(stringPair).WithMaxFrameSize(len(hiBye) - 1)
	long := append(cobs.Encode([]byte{10, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 0}), 0)
	results := p.Process(append(long, hiBye...))
	require.Len(t, results, 2)
	requireStageError(t, results[0], StageFraming, frame.ErrFrameTooLarge)
	require.NoError(t, results[1].Err)
}

func TestPipelineFrame(t *testing.T) {
	p := NewPipeline(stringPair)
	wire, err := p.Frame(varstruct.Record{"hi", "bye"})
	require.NoError(t, err)
	require.Equal(t, hiBye, wire)

	rec := varstruct.Record{[]byte{0, 0, 1}, bytes.Repeat([]byte{0xff}, 255)}
	wire, err = p.Frame(rec)
	require.NoError(t, err)
	require.Equal(t, 1, bytes.Count(wire, []byte{0}))
	results := p.Process(wire)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Equal(t, rec, results[0].Record)

	_, err = p.Frame(varstruct.Record{bytes.Repeat([]byte{'a'}, 256), ""})
	require.ErrorIs(t, err, varstruct.ErrFieldTooLong)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "decode", StageDecode.String())
	err := &PipelineError{Stage: StageUnpack, Err: varstruct.ErrTruncated}
	require.Equal(t, "unpack: truncated payload", err.Error())
}
